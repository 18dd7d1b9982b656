package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries caps the in-process cache
const DefaultMaxEntries = 1024

type memoryEntry struct {
	name      string
	expiresAt time.Time
}

// MemoryCache is a bounded in-process RootNameCache
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[int]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// MemoryOption configures a MemoryCache
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// WithMaxEntries sets the entry cap; values below 1 are ignored
func WithMaxEntries(n int) MemoryOption {
	return func(c *MemoryCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// NewMemoryCache creates a MemoryCache whose entries live for ttl
func NewMemoryCache(ttl time.Duration, opts ...MemoryOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultRootNameTTL
	}
	c := &MemoryCache{
		entries:    make(map[int]memoryEntry),
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, treeID int) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[treeID]
	if !ok {
		return "", false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, treeID)
		return "", false, nil
	}
	return e.name, true, nil
}

func (c *MemoryCache) Set(_ context.Context, treeID int, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[treeID]; !exists && len(c.entries) >= c.maxEntries {
		c.evict(now)
	}
	c.entries[treeID] = memoryEntry{name: name, expiresAt: now.Add(c.ttl)}
	return nil
}

// evict drops expired entries, or the entry closest to expiry when none
// have expired. Callers hold mu.
func (c *MemoryCache) evict(now time.Time) {
	oldest, found := 0, false
	var oldestAt time.Time
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
			continue
		}
		if !found || e.expiresAt.Before(oldestAt) {
			oldest, oldestAt, found = id, e.expiresAt, true
		}
	}
	if len(c.entries) >= c.maxEntries && found {
		delete(c.entries, oldest)
	}
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
