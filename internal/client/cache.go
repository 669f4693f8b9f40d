package client

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long read responses stay fresh
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// ttlCache is a read-through cache keyed by operation+id. Reads dominate
// (many UI components share one gateway), so lookups take a read lock;
// invalidation is rare and takes the write lock.
type ttlCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newTTLCache(ttl time.Duration, now func() time.Time) *ttlCache {
	if now == nil {
		now = time.Now
	}
	return &ttlCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached value if it has not expired
func (c *ttlCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the cache TTL
func (c *ttlCache) Set(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops one entry so the next read is fresh
func (c *ttlCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops all entries
func (c *ttlCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
