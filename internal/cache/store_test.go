package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureNamespace(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	first, err := s.EnsureNamespace(Cards)
	require.NoError(t, err)
	second, err := s.EnsureNamespace(Cards)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, Cards), first)
	assert.Equal(t, first, second)

	info, err := os.Stat(first)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureNamespaceUnavailable(t *testing.T) {
	t.Run("empty root", func(t *testing.T) {
		_, err := NewStore("").EnsureNamespace(Decks)
		assert.ErrorIs(t, err, ErrCacheUnavailable)
	})

	t.Run("root is a file", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(root, []byte("x"), 0644))

		_, err := NewStore(root).EnsureNamespace(Decks)
		assert.ErrorIs(t, err, ErrCacheUnavailable)
	})

	t.Run("read only filesystem", func(t *testing.T) {
		fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
		_, err := NewStoreFs(fs, "/cache").EnsureNamespace(Decks)
		assert.ErrorIs(t, err, ErrCacheUnavailable)
	})

	t.Run("namespace with separator", func(t *testing.T) {
		_, err := NewStore(t.TempDir()).EnsureNamespace("a/b")
		assert.ErrorIs(t, err, ErrCacheUnavailable)
	})
}

func TestReadWriteRemove(t *testing.T) {
	s := NewStoreFs(afero.NewMemMapFs(), "/cache")

	assert.False(t, s.Exists(Decks, "123.json"))
	_, err := s.Read(Decks, "123.json")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ModifiedAt(Decks, "123.json")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(Decks, "123.json", []byte(`{"a":1}`)))
	assert.True(t, s.Exists(Decks, "123.json"))

	data, err := s.Read(Decks, "123.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	// last write wins
	require.NoError(t, s.Write(Decks, "123.json", []byte(`{"a":2}`)))
	data, err = s.Read(Decks, "123.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	require.NoError(t, s.Remove(Decks, "123.json"))
	assert.False(t, s.Exists(Decks, "123.json"))
	assert.NoError(t, s.Remove(Decks, "123.json"), "removing an absent key is ignored")
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	require.NoError(t, s.Write(Cards, "01001.png", []byte("png")))

	names, err := os.ReadDir(filepath.Join(root, Cards))
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "01001.png", names[0].Name())
}

func TestModifiedAt(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStoreFs(fs, "/cache")
	require.NoError(t, s.Write(Decks, "1.json", []byte("{}")))

	old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, fs.Chtimes(s.Path(Decks, "1.json"), old, old))

	got, err := s.ModifiedAt(Decks, "1.json")
	require.NoError(t, err)
	assert.True(t, got.Equal(old))
}

func TestInvalidKeys(t *testing.T) {
	s := NewStoreFs(afero.NewMemMapFs(), "/cache")

	for _, key := range []string{"", ".", "..", "../escape", "a/b"} {
		assert.Error(t, s.Write(Cards, key, []byte("x")), key)
		assert.False(t, s.Exists(Cards, key), key)
		assert.NoError(t, s.Remove(Cards, key), key)
	}
}

func TestListAndClear(t *testing.T) {
	s := NewStoreFs(afero.NewMemMapFs(), "/cache")

	entries, err := s.List(Cards)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, s.Write(Cards, "01001.png", []byte("front")))
	require.NoError(t, s.Write(Cards, "01001b.jpg", []byte("back!")))

	entries, err = s.List(Cards)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "01001.png", entries[0].Key)
	assert.Equal(t, int64(5), entries[0].Size)

	n, err := s.Clear(Cards)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err = s.List(Cards)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
