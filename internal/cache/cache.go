// Package cache provides a process-wide, concurrency-safe TTL cache used to
// memoize values derived from session tokens (decoded identities, decrypted
// provider tokens).
package cache

import (
	"context"
	"sync"
	"time"
)

// entry holds a cached value with an optional absolute expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means the entry never expires
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// Cache is a mutex-guarded map from K to a value with an optional absolute
// expiry. Expired entries are evicted lazily on lookup; Sweep bounds memory
// for keys that are never looked up again.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]entry[V]
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]entry[V]),
	}
}

// Put stores value under key, unconditionally overwriting any existing entry.
// A zero expiresAt means the entry is valid until explicitly removed.
func (c *Cache[K, V]) Put(key K, value V, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
}

// Get returns the value for key if an entry exists and has not expired.
// An expired entry found during lookup is deleted as a side effect and the
// call reports a miss. Expiry is evaluated against a single clock read.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	if e.expired(time.Now()) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}

	return e.value, true
}

// Remove deletes the entry for key if present; no-op otherwise.
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Sweep evicts every expired entry. Never required for correctness, only
// memory bounding.
func (c *Cache[K, V]) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// StartSweeper runs Sweep on a ticker until ctx is cancelled.
func (c *Cache[K, V]) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
