// Package cache provides an in-memory cache for list responses.
// It uses patrickmn/go-cache for TTL-based expiry.
package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache wraps go-cache. Keys built with Key carry a generation number, so
// Invalidate makes every earlier key unreachable even if a slow reader
// stores its result after the invalidation.
type Cache struct {
	store      *gocache.Cache
	generation atomic.Uint64
	hits       atomic.Uint64
	misses     atomic.Uint64
}

// New creates a new cache with the given TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Key builds a generation-scoped key from parts.
func (c *Cache) Key(parts ...any) string {
	key := fmt.Sprintf("g%d", c.generation.Load())
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (any, bool) {
	v, ok := c.store.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores a value in the cache with default TTL.
func (c *Cache) Set(key string, value any) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores a value in the cache with custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Delete removes a value from the cache.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Invalidate bumps the generation and drops every stored entry.
func (c *Cache) Invalidate() {
	c.generation.Add(1)
	c.store.Flush()
}

// ItemCount returns the number of items in the cache.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}

// Stats returns cache statistics.
type Stats struct {
	ItemCount  int    `json:"item_count"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Generation uint64 `json:"generation"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	return Stats{
		ItemCount:  c.store.ItemCount(),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Generation: c.generation.Load(),
	}
}
