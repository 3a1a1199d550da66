package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize bounds the in-memory cache when no size is given.
const DefaultSize = 4096

// InMemoryCache is a thread-safe, size-bounded LRU with per-entry TTL.
type InMemoryCache struct {
	lru *expirable.LRU[string, string]
}

// NewInMemoryCache creates an in-memory cache holding at most size entries.
// If size is 0 or negative DefaultSize is used. If ttlSeconds is 0 or
// negative, entries never expire.
func NewInMemoryCache(size, ttlSeconds int) *InMemoryCache {
	if size <= 0 {
		size = DefaultSize
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}
	return &InMemoryCache{
		lru: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// Get retrieves a value from the cache.
func (c *InMemoryCache) Get(_ context.Context, key string) (string, bool) {
	return c.lru.Get(key)
}

// Set stores a value in the cache, evicting the least recently used entry
// when full.
func (c *InMemoryCache) Set(_ context.Context, key string, value string) error {
	c.lru.Add(key, value)
	return nil
}

// Len returns the number of entries in the cache.
func (c *InMemoryCache) Len() int {
	return c.lru.Len()
}

// Clear removes all entries from the cache.
func (c *InMemoryCache) Clear() {
	c.lru.Purge()
}

// Entries returns all non-expired entries as key-value pairs.
func (c *InMemoryCache) Entries(_ context.Context) (map[string]string, error) {
	result := make(map[string]string, c.lru.Len())
	for _, key := range c.lru.Keys() {
		if value, ok := c.lru.Peek(key); ok {
			result[key] = value
		}
	}
	return result, nil
}

var _ Lister = (*InMemoryCache)(nil)
