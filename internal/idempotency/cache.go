// Package idempotency caches checkout idempotency keys in Redis so a
// network-level retry can be answered without touching the order store.
// The cache is an optimization only: the orders table carries a unique
// index on the key, which remains the source of truth.
package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "checkout:idem:"
	ttl       = 24 * time.Hour
)

type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCache(addr string, logger *zap.Logger) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		logger: logger,
	}
}

// Lookup returns the order id previously stored for the key, or "" when
// unseen. Cache errors degrade to a miss; the database check still runs.
func (c *Cache) Lookup(ctx context.Context, key string) string {
	if c == nil || key == "" {
		return ""
	}
	orderID, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("idempotency cache lookup", zap.Error(err))
		}
		return ""
	}
	return orderID
}

// Store records the order settled for the key. Failures are logged only.
func (c *Cache) Store(ctx context.Context, key, orderID string) {
	if c == nil || key == "" {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, orderID, ttl).Err(); err != nil {
		c.logger.Warn("idempotency cache store", zap.Error(err))
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
