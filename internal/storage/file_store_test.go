package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFileStoreTest(t *testing.T) *FileStore {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestFileStore_SetGet(t *testing.T) {
	store := setupFileStoreTest(t)
	ctx := context.Background()

	err := store.Set(ctx, KeyCart, `{"items":[]}`)
	require.NoError(t, err)

	value, err := store.Get(ctx, KeyCart)
	assert.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, value)
}

func TestFileStore_Get_Missing(t *testing.T) {
	store := setupFileStoreTest(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFileStore_Set_Overwrites(t *testing.T) {
	store := setupFileStoreTest(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyCart, "first"))
	require.NoError(t, store.Set(ctx, KeyCart, "second"))

	value, err := store.Get(ctx, KeyCart)
	assert.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestFileStore_Delete(t *testing.T) {
	store := setupFileStoreTest(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyCheckoutDraft, "draft"))
	require.NoError(t, store.Delete(ctx, KeyCheckoutDraft))

	_, err := store.Get(ctx, KeyCheckoutDraft)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete(ctx, KeyCheckoutDraft))
}

func TestFileStore_RejectsPathTraversalKeys(t *testing.T) {
	store := setupFileStoreTest(t)
	ctx := context.Background()

	err := store.Set(ctx, "../escape", "value")
	assert.Error(t, err)

	_, err = store.Get(ctx, "a/b")
	assert.Error(t, err)
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), KeyCart, "value"))

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = os.Stat(filepath.Join(dir, KeyCart+".json"))
	assert.NoError(t, err)
}
