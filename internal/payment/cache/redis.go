package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"payment-gateway/internal/logger"
	"payment-gateway/internal/models"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "payment:"

// RedisCache stores entries as JSON strings with SET EX. Redis failures
// degrade to cache misses.
type RedisCache struct {
	Client *redis.Client
	Logger *logger.Logger
}

// NewRedisCache wraps an already configured client. Keys are payment:<id>.
func NewRedisCache(client *redis.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{
		Client: client,
		Logger: log,
	}
}

func cacheKey(id string) string {
	return keyPrefix + id
}

func (c *RedisCache) Get(ctx context.Context, id string) (*models.GetPaymentResponse, bool) {
	raw, err := c.Client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.Logger.LogCache("MISS", id, "Payment not cached")
		return nil, false
	}
	if err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to read payment %s from redis: %v", id, err))
		return nil, false
	}

	var value models.GetPaymentResponse
	if err := json.Unmarshal(raw, &value); err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Discarding undecodable cache entry for %s: %v", id, err))
		return nil, false
	}

	c.Logger.LogCache("HIT", id, "Payment served from cache")
	return &value, true
}

func (c *RedisCache) Set(ctx context.Context, id string, value *models.GetPaymentResponse, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to encode payment %s: %v", id, err))
		return
	}

	if err := c.Client.Set(ctx, cacheKey(id), raw, ttl).Err(); err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to cache payment %s: %v", id, err))
		return
	}
	c.Logger.LogCache("SET", id, fmt.Sprintf("Cached for %s", ttl))
}

func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
