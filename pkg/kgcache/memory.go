package kgcache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	cacheType CacheType
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCache is the process-local cache implementation. Safe for
// concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get returns the cached value, evicting it lazily if its TTL has elapsed.
func (c *MemoryCache) Get(_ context.Context, cacheType CacheType, args []string, kwargs map[string]interface{}) (string, bool, error) {
	key := MakeKey(cacheType, args, kwargs)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if entry.expired(time.Now()) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value under the key derived from cacheType/args/kwargs. ttl of
// zero selects DefaultTTL(cacheType).
func (c *MemoryCache) Set(_ context.Context, cacheType CacheType, args []string, kwargs map[string]interface{}, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL(cacheType)
	}
	key := MakeKey(cacheType, args, kwargs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{cacheType: cacheType, value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Invalidate clears every entry of cacheType, or the whole cache when
// cacheType is empty.
func (c *MemoryCache) Invalidate(_ context.Context, cacheType CacheType) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cacheType == "" {
		c.entries = make(map[string]memoryEntry)
		return nil
	}
	for key, entry := range c.entries {
		if entry.cacheType == cacheType {
			delete(c.entries, key)
		}
	}
	return nil
}

// Stats reports total/expired/active entry counts without evicting.
func (c *MemoryCache) Stats(_ context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	stats := Stats{TotalEntries: len(c.entries)}
	for _, entry := range c.entries {
		if entry.expired(now) {
			stats.ExpiredEntries++
		}
	}
	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats, nil
}
