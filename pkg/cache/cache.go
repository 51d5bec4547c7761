// Package cache provides the TTL-gated key/value store every other
// component reads and writes through.
//
// A [Cache] combines a [Store] (file system, Redis or nothing) with a
// key prefix, a time-to-live and a global enable switch. Entries are
// judged by their modification time: an entry is served only while
// now <= modTime + ttl, even if the underlying file is still on disk.
//
// Namespaces scope keys and may carry their own TTL, which is how the
// updater keeps download listings, resolved versions and the package
// registry on independent schedules:
//
//	root := cache.New(store, cache.Options{Enabled: true, TTL: 7 * 24 * time.Hour})
//	pkg := root.Namespace("cross/zlib")
//	pages := pkg.Namespace("download").WithTTL(24 * time.Hour)
//	pages.Save(ctx, "pages.json", listing) // stored as cross/zlib/download/pages.json
package cache

import (
	"context"
	"encoding/json"
	"path"
	"time"
)

// Options configures a root [Cache].
type Options struct {
	// Enabled turns Load and Check on. Save keeps writing when disabled so
	// a later enabled run can reuse the data.
	Enabled bool
	// TTL is the default time-to-live. Zero means entries never expire.
	TTL time.Duration
}

// Cache is a namespaced, TTL-gated view over a [Store].
//
// Cache values are immutable; Namespace and WithTTL return new views that
// share the same store. A Cache is safe for concurrent use when its store
// is, and the file and Redis stores are.
type Cache struct {
	store   Store
	enabled bool
	ttl     time.Duration
	prefix  string
	now     func() time.Time
}

// New creates a root Cache over store.
func New(store Store, opts Options) *Cache {
	if store == nil {
		store = NewNullStore()
	}
	return &Cache{
		store:   store,
		enabled: opts.Enabled,
		ttl:     opts.TTL,
		now:     time.Now,
	}
}

// Disabled returns a Cache that never stores or serves anything.
func Disabled() *Cache {
	return New(NewNullStore(), Options{})
}

// Namespace returns a view that prefixes every key with name.
// Namespaces nest with "/" so each one is a subtree of its parent.
func (c *Cache) Namespace(name string) *Cache {
	cp := *c
	cp.prefix = path.Join(c.prefix, name)
	return &cp
}

// WithTTL returns a view with a different time-to-live.
func (c *Cache) WithTTL(ttl time.Duration) *Cache {
	cp := *c
	cp.ttl = ttl
	return &cp
}

// TTL returns the time-to-live of this view.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Enabled reports whether loads are honored.
func (c *Cache) Enabled() bool { return c.enabled }

// Prefix returns the namespace path of this view.
func (c *Cache) Prefix() string { return c.prefix }

// Save marshals v to JSON and stores it under key.
func (c *Cache) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Write(ctx, c.key(key), data)
}

// Load retrieves key and unmarshals it into v.
//
// Return values:
//   - (true, nil): fresh entry, unmarshaled into v.
//   - (false, nil): no entry.
//   - (false, ErrExpired): entry exists but now > modTime + ttl.
//   - (false, ErrDisabled): caching is globally off.
//   - (false, other error): store or decoding failure.
func (c *Cache) Load(ctx context.Context, key string, v any) (bool, error) {
	return c.load(ctx, key, c.ttl, v)
}

// Check reports whether a fresh entry exists for key. An explicit ttl
// overrides the namespace TTL for this call.
func (c *Cache) Check(ctx context.Context, key string, ttl ...time.Duration) bool {
	d := c.ttl
	if len(ttl) > 0 && ttl[0] > 0 {
		d = ttl[0]
	}
	ok, err := c.load(ctx, key, d, nil)
	return ok && err == nil
}

// Clear removes key.
func (c *Cache) Clear(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.key(key))
}

// Purge removes every entry of the namespace. On the root cache it
// removes everything.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	return c.store.Purge(ctx, c.prefix)
}

// Store returns the backing store.
func (c *Cache) Store() Store { return c.store }

func (c *Cache) load(ctx context.Context, key string, ttl time.Duration, v any) (bool, error) {
	if !c.enabled {
		return false, ErrDisabled
	}
	data, modTime, ok, err := c.store.Read(ctx, c.key(key))
	if err != nil || !ok {
		return false, err
	}
	if ttl > 0 && c.now().After(modTime.Add(ttl)) {
		return false, ErrExpired
	}
	if v == nil {
		return true, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) key(key string) string {
	return path.Join(c.prefix, key)
}
