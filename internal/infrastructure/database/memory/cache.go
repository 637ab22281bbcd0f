// Package memory provides an in-process result cache used when Redis is
// disabled (CLI runs, tests, single-node deployments).
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxEntries bounds the LRU so an unbounded stream of distinct study
// areas cannot grow the heap without limit.
const DefaultMaxEntries = 4096

// Cache is a TTL+LRU cache satisfying the aggregation result-cache port.
// Entries expire after the TTL given at construction; per-call TTLs finer
// than that are not supported by the backing store and are ignored.
type Cache struct {
	mu  sync.Mutex
	lru *lru.LRU[string, []byte]
}

// NewCache builds a cache holding at most maxEntries values for at most ttl.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{lru: lru.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, value)
	return nil
}

func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
	return nil
}

// Len reports the current entry count, exposed for tests and health output.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
