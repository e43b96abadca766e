package cache

import (
	"sync"
	"time"
)

// Cache provides a minimal TTL cache interface for hot-path lookups.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type entry[V any] struct {
	value    V
	deadline int64 // unix nanos, 0 means no expiry
}

// TTLCache stores values in-memory with per-entry TTLs. The finance core
// uses it to keep tax settings reads off the hot posting path. Expired
// entries are dropped lazily on read and swept on write.
type TTLCache[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]entry[V]
	now   func() time.Time
}

// NewTTLCache constructs an empty cache backed by the wall clock.
func NewTTLCache[K comparable, V any]() *TTLCache[K, V] {
	return &TTLCache[K, V]{
		items: make(map[K]entry[V]),
		now:   time.Now,
	}
}

// WithNow overrides the cache's time source. Test hook.
func (c *TTLCache[K, V]) WithNow(now func() time.Time) *TTLCache[K, V] {
	c.now = now
	return c
}

func (c *TTLCache[K, V]) expired(e entry[V], at int64) bool {
	return e.deadline != 0 && at >= e.deadline
}

// Get returns a cached value if it exists and has not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	at := c.now().UnixNano()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if c.expired(e, at) {
		delete(c.items, key)
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the provided TTL. A zero or negative TTL stores
// the value without expiry. Each write also sweeps entries that have
// already lapsed so long-lived caches do not accumulate dead keys.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	at := c.now().UnixNano()
	var deadline int64
	if ttl > 0 {
		deadline = at + ttl.Nanoseconds()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.items {
		if c.expired(e, at) {
			delete(c.items, k)
		}
	}
	c.items[key] = entry[V]{value: value, deadline: deadline}
}

// Delete removes a cached entry.
func (c *TTLCache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (c *TTLCache[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
