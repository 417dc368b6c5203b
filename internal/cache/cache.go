// Package cache provides the key/value stores used for AI answers and
// subject responses.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is a string cache with per-entry expiry. Expired entries are misses.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
}

// MemoryStore is a concurrency-safe in-process Store backed by go-cache
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates a store whose janitor purges expired entries every
// cleanupInterval. A zero interval disables the janitor; expired entries are
// still reported as misses.
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the cached value for key
func (s *MemoryStore) Get(key string) (string, bool) {
	v, found := s.c.Get(key)
	if !found {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Set stores value under key for ttl. A non-positive ttl uses the store default.
func (s *MemoryStore) Set(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.c.Set(key, value, ttl)
}

// Len reports the number of entries, including expired ones not yet purged
func (s *MemoryStore) Len() int {
	return s.c.ItemCount()
}

// Flush removes every entry
func (s *MemoryStore) Flush() {
	s.c.Flush()
}
