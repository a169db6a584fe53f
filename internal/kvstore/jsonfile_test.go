package kvstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefjnl/localai-knowledge/internal/kvstore"
)

func TestJSONFileStoreRoundtrip(t *testing.T) {
	store, err := kvstore.NewJSONFileStore(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.False(t, store.Degraded())

	require.NoError(t, store.Put(context.Background(), "files", []string{"a.txt", "b.pdf"}))

	var files []string
	ok, err := store.Get(context.Background(), "files", &files)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a.txt", "b.pdf"}, files)
}

func TestJSONFileStoreMissingKey(t *testing.T) {
	store, err := kvstore.NewJSONFileStore(context.Background(), t.TempDir())
	require.NoError(t, err)

	var out map[string]string
	ok, err := store.Get(context.Background(), "nope", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONFileStoreCorruptTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := kvstore.NewJSONFileStore(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))

	var out []string
	ok, err := store.Get(context.Background(), "broken", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONFileStoreUnwritableRootFallsBack(t *testing.T) {
	// A regular file cannot become the root directory.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store, err := kvstore.NewJSONFileStore(context.Background(), blocker)
	require.NoError(t, err)
	assert.True(t, store.Degraded())
	assert.NotEqual(t, blocker, store.Root())

	require.NoError(t, store.Put(context.Background(), "probe", "value"))
	var out string
	ok, err := store.Get(context.Background(), "probe", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", out)

	require.NoError(t, store.Delete(context.Background(), "probe"))
}

func TestJSONFileStoreDeleteMissingIsNoop(t *testing.T) {
	store, err := kvstore.NewJSONFileStore(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Delete(context.Background(), "never-existed"))
}
