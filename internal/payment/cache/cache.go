package cache

import (
	"context"
	"time"

	"payment-gateway/internal/models"
)

// Cache holds read projections of payments keyed by payment id. Entries
// expire a fixed ttl after insertion; reads do not extend them.
type Cache interface {
	Get(ctx context.Context, id string) (*models.GetPaymentResponse, bool)
	Set(ctx context.Context, id string, value *models.GetPaymentResponse, ttl time.Duration)
}

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = (*MemoryCache)(nil)
)
