// Package cache provides in-process TTL caches with explicit
// stale-on-error reads.
package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrNotPopulated indicates the cache has never been written.
// Distinct from staleness: a stale cache still holds a usable value.
var ErrNotPopulated = errors.New("cache: not yet populated")

type entry[T any] struct {
	value     T
	writeTime time.Time
}

func (e entry[T]) stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.writeTime) >= ttl
}

// Cache guards a single value with a freshness window. Entries are
// replaced whole on Set; readers never observe a partial update.
type Cache[T any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	ent   *entry[T]
	clock func() time.Time
}

// New constructs a cache with the given freshness window.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{ttl: ttl, clock: time.Now}
}

// Set records a value with the current write time.
func (c *Cache[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ent = &entry[T]{value: value, writeTime: c.clock()}
}

// Get returns the stored value and whether it is still fresh.
// Returns ErrNotPopulated before the first Set.
func (c *Cache[T]) Get() (T, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	if c.ent == nil {
		return zero, false, ErrNotPopulated
	}
	return c.ent.value, !c.ent.stale(c.clock(), c.ttl), nil
}

// GetOrStale returns the last stored value regardless of freshness,
// reporting whether the caller received stale data. Intended only for
// the fetch-failed path; Get is the default read.
func (c *Cache[T]) GetOrStale() (T, bool, error) {
	value, fresh, err := c.Get()
	if err != nil {
		return value, false, err
	}
	return value, !fresh, nil
}

// WrittenAt reports the last write time, or false before the first Set.
func (c *Cache[T]) WrittenAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ent == nil {
		return time.Time{}, false
	}
	return c.ent.writeTime, true
}

// TTL reports the configured freshness window.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// KeyedCache holds one TTL entry per key. Keys are never evicted; the
// intended key domains (protocol names) are small and bounded.
type KeyedCache[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[T]
	clock   func() time.Time
}

// NewKeyed constructs an empty keyed cache.
func NewKeyed[T any](ttl time.Duration) *KeyedCache[T] {
	return &KeyedCache[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		clock:   time.Now,
	}
}

// Set records a value for key with the current write time.
func (c *KeyedCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{value: value, writeTime: c.clock()}
}

// Get returns the fresh value for key. A missing or expired entry
// reports ok=false; expired entries are left in place for Set to
// overwrite.
func (c *KeyedCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	ent, ok := c.entries[key]
	if !ok || ent.stale(c.clock(), c.ttl) {
		return zero, false
	}
	return ent.value, true
}

// Len reports the number of keys ever written.
func (c *KeyedCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
