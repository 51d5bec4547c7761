package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps each entry as a plain file below a root directory.
// Keys map directly to relative paths, so every package gets its own
// subtree ("cross/zlib/download/pages.json") that can be inspected or
// removed by hand. The file modification time is the entry's age.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store rooted at dir.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *FileStore) Dir() string { return s.dir }

// Read retrieves a file and its modification time.
func (s *FileStore) Read(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return data, info.ModTime(), true, nil
}

// Write stores data, creating parent directories as needed.
// The file is written to a temporary name and renamed into place so a
// concurrent reader never observes a partial entry.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete removes a file. Missing files are ignored.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Purge removes every file below prefix and then the directories left
// empty. Unreadable entries are skipped.
func (s *FileStore) Purge(ctx context.Context, prefix string) (int, error) {
	root := s.dir
	if prefix != "" {
		p, err := s.path(prefix)
		if err != nil {
			return 0, err
		}
		root = p
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	var dirs []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			if path != s.dir {
				dirs = append(dirs, path)
			}
			return nil
		}
		if os.Remove(path) == nil {
			count++
		}
		return nil
	})
	// Deepest first so parents are empty by the time they are removed.
	for i := len(dirs) - 1; i >= 0; i-- {
		os.Remove(dirs[i])
	}
	return count, err
}

// Close does nothing for file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(k)), nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
