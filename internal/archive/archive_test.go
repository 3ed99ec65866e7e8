package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	t.Parallel()

	t.Run("WritesAndReturnsURI", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewLocalStore(dir)
		require.NoError(t, err)

		uri, err := store.PutObject(context.Background(), "run-1/111.json", "application/json", []byte(`{"aweme_id":"111"}`))
		require.NoError(t, err)
		assert.Equal(t, "file://"+filepath.Join(dir, "run-1", "111.json"), uri)

		data, err := os.ReadFile(filepath.Join(dir, "run-1", "111.json"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"aweme_id":"111"}`, string(data))
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		store, err := NewLocalStore(t.TempDir())
		require.NoError(t, err)

		_, err = store.PutObject(context.Background(), "../escape.json", "application/json", []byte("{}"))
		require.Error(t, err)
	})

	t.Run("RejectsEmptyPath", func(t *testing.T) {
		store, err := NewLocalStore(t.TempDir())
		require.NoError(t, err)

		_, err = store.PutObject(context.Background(), "  ", "application/json", []byte("{}"))
		require.Error(t, err)
	})

	t.Run("RequiresBaseDir", func(t *testing.T) {
		_, err := NewLocalStore("")
		require.Error(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	uri, err := store.PutObject(context.Background(), "raw/run-1/111.json", "application/json", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "memory://raw/run-1/111.json", uri)

	data, ok := store.Get("raw/run-1/111.json")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), data)
	assert.Equal(t, 1, store.Len())

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestNew_VariantSelection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("None", func(t *testing.T) {
		store, err := New(ctx, Config{Variant: VariantNone})
		require.NoError(t, err)
		assert.Nil(t, store)
	})
	t.Run("Local", func(t *testing.T) {
		store, err := New(ctx, Config{Variant: VariantLocal, BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &LocalStore{}, store)
	})
	t.Run("Memory", func(t *testing.T) {
		store, err := New(ctx, Config{Variant: VariantMemory})
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
	})
	t.Run("Unknown", func(t *testing.T) {
		_, err := New(ctx, Config{Variant: "s3"})
		require.Error(t, err)
	})
}
