package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrExpired is returned by [Cache.Load] when an entry exists but has
	// outlived its namespace TTL. The stale payload is never returned.
	ErrExpired = errors.New("cache entry expired")

	// ErrDisabled is returned by [Cache.Load] when caching is globally off.
	ErrDisabled = errors.New("cache disabled")

	// ErrInvalidKey is returned when a key would escape the cache root.
	ErrInvalidKey = errors.New("invalid cache key")
)
