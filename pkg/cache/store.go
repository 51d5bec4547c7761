package cache

import (
	"context"
	"path"
	"strings"
	"time"
)

// Store is the persistence backend behind a [Cache]. A store only moves
// bytes; expiry is decided by the Cache using the modification time the
// store reports.
type Store interface {
	// Read returns the payload stored under key and the time it was last
	// written. ok is false when the key does not exist.
	Read(ctx context.Context, key string) (data []byte, modTime time.Time, ok bool, err error)
	// Write stores data under key, resetting its modification time.
	Write(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Purge removes every key below prefix, or every key when prefix is
	// empty, and returns how many were removed.
	Purge(ctx context.Context, prefix string) (int, error)
	// Close releases backend resources.
	Close() error
}

// cleanKey normalizes a slash-separated key and rejects keys that would
// leave the cache root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	k := path.Clean("/" + key)[1:]
	if k == "" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return k, nil
}
