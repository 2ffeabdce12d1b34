package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Development", func(t *testing.T) {
		logger, err := New(true, "debug")
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer logger.Sync() //nolint:errcheck // best-effort flush
		logger.Debug("development logger ready")
	})

	t.Run("Production", func(t *testing.T) {
		logger, err := New(false, "")
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer logger.Sync() //nolint:errcheck // best-effort flush
		logger.Info("production logger ready")
	})

	t.Run("BadLevel", func(t *testing.T) {
		_, err := New(false, "chatty")
		assert.Error(t, err)
	})
}

func TestComponent(t *testing.T) {
	logger, err := New(true, "")
	require.NoError(t, err)

	child := Component(logger, "persist")
	assert.NotNil(t, child)

	assert.NotNil(t, Component(nil, "persist"), "nil parent falls back to a nop logger")
}
