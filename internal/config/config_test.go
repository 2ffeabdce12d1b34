package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	InitDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	v := newViper(t)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.FetchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, int64(10)<<20, cfg.Quota.FileSizeCap)
	assert.NotEmpty(t, cfg.RestrictedPath)
	assert.Contains(t, cfg.ExcludedDirs, ".git")
	assert.Empty(t, cfg.OpsListen)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  any
		errSub string
	}{
		{"ZeroConcurrency", "fetch.concurrency", 0, "fetch.concurrency"},
		{"ZeroTimeout", "fetch.timeout", "0s", "fetch.timeout"},
		{"ZeroRetries", "fetch.retry_attempts", 0, "fetch.retry_attempts"},
		{"EmptyUserAgent", "fetch.user_agent", "", "fetch.user_agent"},
		{"EmptySaveDir", "save.dir", "", "save.dir"},
		{"ZeroFileSizeCap", "quota.file_size_cap", 0, "quota.file_size_cap"},
		{"ZeroFileCountLimit", "quota.file_count_limit", 0, "quota.file_count_limit"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := newViper(t)
			v.Set(tc.key, tc.value)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errSub)
		})
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("WEBVAULT_FETCH_CONCURRENCY", "9")

	v := newViper(t)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.FetchConcurrency)
}
