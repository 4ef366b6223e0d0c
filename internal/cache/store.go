// Package cache maps logical keys to files under per-kind namespaces of a cache root.
//
// The filesystem is the only index: a key exists when its file exists. Writers
// are not coordinated; the last write to a key wins.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Namespaces used by the application.
const (
	Decks    = "Decks"
	Cards    = "Cards"
	Previews = "Previews"
)

var (
	// ErrCacheUnavailable means the cache root or a namespace directory could not be established.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrNotFound means no file exists for the key.
	ErrNotFound = errors.New("cache entry not found")
)

// Store is a filename-keyed cache rooted at a single directory.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore returns a store over the OS filesystem.
func NewStore(root string) *Store {
	return NewStoreFs(afero.NewOsFs(), root)
}

// NewStoreFs returns a store over fs.
func NewStoreFs(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// EnsureNamespace creates the namespace directory if needed and returns its path.
func (s *Store) EnsureNamespace(name string) (string, error) {
	if s.root == "" {
		return "", fmt.Errorf("%w: no cache root configured", ErrCacheUnavailable)
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: invalid namespace %q", ErrCacheUnavailable, name)
	}
	dir := filepath.Join(s.root, name)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return dir, nil
}

// Path returns the file path for key in namespace ns. It does not touch the filesystem.
func (s *Store) Path(ns, key string) string {
	return filepath.Join(s.root, ns, key)
}

func (s *Store) stat(ns, key string) (os.FileInfo, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: invalid key %q", ErrNotFound, key)
	}
	info, err := s.fs.Stat(s.Path(ns, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, ns, key)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s/%s is a directory", ErrNotFound, ns, key)
	}
	return info, nil
}

// Exists reports whether a regular file is stored under key.
func (s *Store) Exists(ns, key string) bool {
	_, err := s.stat(ns, key)
	return err == nil
}

// Read returns the stored bytes, or ErrNotFound.
func (s *Store) Read(ns, key string) ([]byte, error) {
	if _, err := s.stat(ns, key); err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, s.Path(ns, key))
}

// Write stores data under key. The namespace is provisioned on demand and the
// file is replaced atomically.
func (s *Store) Write(ns, key string, data []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid cache key %q", key)
	}
	dir, err := s.EnsureNamespace(ns)
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", ns, key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("write %s/%s: %w", ns, key, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("write %s/%s: %w", ns, key, err)
	}
	if err := s.fs.Rename(tmpName, s.Path(ns, key)); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("write %s/%s: %w", ns, key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(ns, key string) error {
	if !validKey(key) {
		return nil
	}
	err := s.fs.Remove(s.Path(ns, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s/%s: %w", ns, key, err)
	}
	return nil
}

// ModifiedAt returns the modification time of key, or ErrNotFound.
func (s *Store) ModifiedAt(ns, key string) (time.Time, error) {
	info, err := s.stat(ns, key)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Entry describes one stored file.
type Entry struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// List returns the regular files stored in ns. A namespace that was never
// provisioned is empty.
func (s *Store) List(ns string) ([]Entry, error) {
	infos, err := afero.ReadDir(s.fs, filepath.Join(s.root, ns))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", ns, err)
	}
	var entries []Entry
	for _, info := range infos {
		if info.IsDir() || !validKey(info.Name()) || isTemp(info.Name()) {
			continue
		}
		entries = append(entries, Entry{Key: info.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return entries, nil
}

// Clear removes every file in ns and returns how many were removed.
func (s *Store) Clear(ns string) (int, error) {
	entries, err := s.List(ns)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if err := s.Remove(ns, e.Key); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// validKey rejects keys that would escape the namespace directory.
func validKey(key string) bool {
	return key != "" && key != "." && key != ".." && key == filepath.Base(key)
}

func isTemp(name string) bool {
	return len(name) > 4 && name[0] == '.' && filepath.Ext(name) == ".tmp"
}
