// Package cache provides the in-process response cache.
package cache

import (
	"sync"
	"time"

	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

// Ensure Memory implements the interface.
var _ driven.Cache = (*Memory)(nil)

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is a TTL cache guarded by a RWMutex. Expired entries are dropped
// lazily on read and swept on write.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an empty cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value and whether it was present and unexpired.
func (c *Memory) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expiresAt == e.expiresAt {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Put stores value under key for ttl.
func (c *Memory) Put(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = driven.DefaultCacheTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
}

// Len returns the number of stored entries, expired or not.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
