package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_AbsoluteExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	value := cachedPayment()

	c.Set(ctx, value.ID, value, 10*time.Minute)

	now = now.Add(9*time.Minute + 59*time.Second)
	got, ok := c.Get(ctx, value.ID)
	require.True(t, ok)
	assert.Equal(t, value, got)

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, value.ID)
	assert.False(t, ok)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	value := cachedPayment()
	c.Set(ctx, value.ID, value, time.Minute)

	value.Status = "Declined"
	got, ok := c.Get(ctx, value.ID)
	require.True(t, ok)
	assert.Equal(t, "Authorized", got.Status)

	got.Amount = 1
	again, _ := c.Get(ctx, value.ID)
	assert.Equal(t, 100, again.Amount)
}

func TestMemoryCache_IgnoresNilAndNonPositiveTTL(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "a", nil, time.Minute)
	c.Set(ctx, "b", cachedPayment(), 0)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	value := cachedPayment()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set(ctx, value.ID, value, time.Minute)
		}()
		go func() {
			defer wg.Done()
			c.Get(ctx, value.ID)
		}()
	}
	wg.Wait()

	got, ok := c.Get(ctx, value.ID)
	require.True(t, ok)
	assert.Equal(t, value.ID, got.ID)
}
