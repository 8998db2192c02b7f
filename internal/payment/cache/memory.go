package cache

import (
	"context"
	"sync"
	"time"

	"payment-gateway/internal/models"
)

type memoryEntry struct {
	value     models.GetPaymentResponse
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with absolute expiry. Expired entries
// are dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache returns an empty cache using the wall clock.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, id string) (*models.GetPaymentResponse, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[id]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, id)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := entry.value
	return &value, true
}

func (c *MemoryCache) Set(_ context.Context, id string, value *models.GetPaymentResponse, ttl time.Duration) {
	if value == nil || ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = memoryEntry{value: *value, expiresAt: c.now().Add(ttl)}
}
