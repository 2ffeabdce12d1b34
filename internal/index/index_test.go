package index

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "captures.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndLookup(t *testing.T) {
	store := openStore(t)

	recorded, err := store.Record(Capture{
		Kind:   "site",
		Source: "https://example.com",
		Path:   "/data/site_20260831_120000/site_data.yaml",
		Digest: "abc123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, recorded.ID)
	assert.False(t, recorded.CreatedAt.IsZero())

	got, err := store.Lookup(recorded.ID)
	require.NoError(t, err)
	assert.Equal(t, "site", got.Kind)
	assert.Equal(t, "https://example.com", got.Source)
	assert.Equal(t, "abc123", got.Digest)
}

func TestLookupMissing(t *testing.T) {
	store := openStore(t)
	_, err := store.Lookup("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.Record(Capture{
			Kind:      "system",
			Source:    "/data/project",
			Path:      "/out/doc.yaml",
			Digest:    "d",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	captures, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, captures, 3)
	assert.True(t, captures[0].CreatedAt.After(captures[2].CreatedAt))

	limited, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRejectsUnknownKind(t *testing.T) {
	store := openStore(t)
	_, err := store.Record(Capture{Kind: "tape", Source: "s", Path: "p", Digest: "d"})
	assert.Error(t, err)
}
