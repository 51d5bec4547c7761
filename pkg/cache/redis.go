package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis so several hosts running the updater
// on a schedule can share crawl results. Each value is stored together
// with its write time; Redis key expiry is not used, the [Cache] TTL
// decides freshness exactly like it does for files.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// redisEntry wraps cached data with its modification time.
type redisEntry struct {
	Data    []byte    `json:"data"`
	ModTime time.Time `json:"mod_time"`
}

// NewRedisStore connects to the Redis server at addr and verifies the
// connection with a PING. Keys are stored below prefix.
func NewRedisStore(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Read retrieves an entry and the time it was written.
func (s *RedisStore) Read(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	raw, err := s.client.Get(ctx, s.prefix+k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Invalid entry - treat as miss
		_ = s.client.Del(ctx, s.prefix+k).Err()
		return nil, time.Time{}, false, nil
	}
	return entry.Data, entry.ModTime, true, nil
}

// Write stores data stamped with the current time.
func (s *RedisStore) Write(ctx context.Context, key string, data []byte) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(redisEntry{Data: data, ModTime: time.Now()})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+k, raw, 0).Err()
}

// Delete removes an entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	return s.client.Del(ctx, s.prefix+k).Err()
}

// Purge deletes every entry below prefix using SCAN, so it does not block
// the server on large keyspaces.
func (s *RedisStore) Purge(ctx context.Context, prefix string) (int, error) {
	match := s.prefix + "*"
	if prefix != "" {
		k, err := cleanKey(prefix)
		if err != nil {
			return 0, err
		}
		match = s.prefix + k + "/*"
	}
	count := 0
	iter := s.client.Scan(ctx, 0, match, 256).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return count, err
		}
		count += int(n)
	}
	return count, iter.Err()
}

// Close closes the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
