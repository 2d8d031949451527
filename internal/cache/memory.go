// Package cache stores computed month views between writes. A Store is either
// process local (Memory) or shared through Redis.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a byte-oriented TTL cache with whole-store invalidation.
//
// Readers that fill the cache from storage take Generation before the storage
// read and store with SetAt, so a snapshot taken before an Invalidate is
// dropped instead of outliving the write that invalidated it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context) error
	Generation(ctx context.Context) (int64, error)
	SetAt(ctx context.Context, gen int64, key string, value []byte) error
}

// Memory keeps entries in a map guarded by a RWMutex. When full, one arbitrary
// entry is evicted after expired ones are dropped.
type Memory struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]memoryEntry
	gen        int64
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory builds a Memory store. Non-positive ttl and maxEntries fall back
// to 30s and 128.
func NewMemory(ttl time.Duration, maxEntries int, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]memoryEntry),
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return cloneBytes(entry.value), true, nil
}

func (c *Memory) Set(_ context.Context, key string, value []byte) error {
	if c == nil {
		return nil
	}
	cloned := cloneBytes(value)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, cloned, expiry)
	return nil
}

// Generation returns the number of invalidations so far.
func (c *Memory) Generation(context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen, nil
}

// SetAt stores value unless the store was invalidated after gen was taken.
func (c *Memory) SetAt(_ context.Context, gen int64, key string, value []byte) error {
	if c == nil {
		return nil
	}
	cloned := cloneBytes(value)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.putLocked(key, cloned, expiry)
	return nil
}

func (c *Memory) putLocked(key string, value []byte, expiry time.Time) {
	c.cleanupLocked()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = memoryEntry{value: value, expiresAt: expiry}
}

func (c *Memory) Invalidate(context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.gen++
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Memory) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *Memory) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
