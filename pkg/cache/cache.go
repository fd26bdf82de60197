package cache

import (
	"strings"
	"sync"
	"time"
)

// entry is a cached value with expiration
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a small in-memory cache with a fixed TTL per entry
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	ttl   time.Duration
	now   func() time.Time
}

// New creates a cache whose entries live for ttl. A non-positive ttl disables
// caching: Set becomes a no-op.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{items: map[string]entry[V]{}, ttl: ttl, now: time.Now}
}

// Set stores a value in the cache
func (c *Cache[V]) Set(key string, value V) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Get retrieves a value from the cache if it hasn't expired
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero V
	e, exists := c.items[key]
	if !exists || c.now().After(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

// Invalidate removes all items matching a prefix; an empty prefix clears the
// cache
func (c *Cache[V]) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prefix == "" {
		c.items = map[string]entry[V]{}
		return
	}
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Len reports the number of stored entries, expired ones included
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
