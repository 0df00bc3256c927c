// Package cache provides caching utilities for the MCP server.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ResponseCache is a thread-safe LRU of decoded panel responses with a
// per-entry time to live. Keys are "<target>/<key>", e.g. "inbound/3".
type ResponseCache struct {
	cache *expirable.LRU[string, any]
}

// NewResponseCache creates a cache holding at most maxItems responses, each
// for at most ttl. A non-positive ttl disables caching.
func NewResponseCache(maxItems int, ttl time.Duration) *ResponseCache {
	if ttl <= 0 || maxItems <= 0 {
		return &ResponseCache{}
	}
	return &ResponseCache{cache: expirable.NewLRU[string, any](maxItems, nil, ttl)}
}

// Get retrieves a response by key.
// Returns the value and true if found and not expired, nil and false otherwise.
func (c *ResponseCache) Get(key string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

// Put adds or updates a response in the cache.
func (c *ResponseCache) Put(key string, v any) {
	if c.cache == nil {
		return
	}
	c.cache.Add(key, v)
}

// Invalidate removes a response from the cache.
func (c *ResponseCache) Invalidate(key string) {
	if c.cache == nil {
		return
	}
	c.cache.Remove(key)
}

// Len returns the current number of items in the cache.
func (c *ResponseCache) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}
