package governor

import (
	"math"
	"testing"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasMemoryHeadroom(t *testing.T) {
	t.Run("GenerousCeiling", func(t *testing.T) {
		gov, err := New(math.MaxUint64, 0, nil)
		require.NoError(t, err)
		assert.True(t, gov.HasMemoryHeadroom())
	})

	t.Run("TinyCeiling", func(t *testing.T) {
		gov, err := New(1, 0, nil)
		require.NoError(t, err)
		assert.False(t, gov.HasMemoryHeadroom(), "a running process always exceeds a 1-byte ceiling")
	})
}

func TestHasDiskSpace(t *testing.T) {
	gov, err := New(math.MaxUint64, 0, nil)
	require.NoError(t, err)

	gov.diskUsage = func(string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Free: 1000}, nil
	}

	t.Run("ZeroAlwaysPasses", func(t *testing.T) {
		assert.True(t, gov.HasDiskSpace(0, t.TempDir()))
	})

	t.Run("WithinFree", func(t *testing.T) {
		assert.True(t, gov.HasDiskSpace(999, t.TempDir()))
	})

	t.Run("BeyondFree", func(t *testing.T) {
		assert.False(t, gov.HasDiskSpace(1001, t.TempDir()))
	})

	t.Run("FloorReserved", func(t *testing.T) {
		gov.diskFloor = 500
		defer func() { gov.diskFloor = 0 }()
		assert.False(t, gov.HasDiskSpace(600, t.TempDir()))
	})
}

func TestHasDiskSpaceRealVolume(t *testing.T) {
	gov, err := New(math.MaxUint64, 0, nil)
	require.NoError(t, err)
	assert.True(t, gov.HasDiskSpace(1, t.TempDir()))
}
