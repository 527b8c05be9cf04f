// Package cache provides a redis-backed decision cache for the restriction
// policy. Verdicts are cheap to recompute, so the cache fails open: any
// redis error is treated as a miss and the policy reads the ledger.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "folio/pkg/domain"
)

const keyPrefix = "restriction:"

// RedisCache stores restriction verdicts with a short TTL so a restricted
// user is re-evaluated promptly after paying down penalties.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New constructs the cache. ttl bounds how stale a verdict may be.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, userID id.UserID) (bool, bool) {
	val, err := c.client.Get(ctx, keyPrefix+userID.String()).Result()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "restriction cache read failed", "error", err)
		}
		return false, false
	}
	return val == "1", true
}

func (c *RedisCache) Set(ctx context.Context, userID id.UserID, restricted bool) {
	val := "0"
	if restricted {
		val = "1"
	}
	if err := c.client.Set(ctx, keyPrefix+userID.String(), val, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "restriction cache write failed", "error", err)
	}
}

func (c *RedisCache) Forget(ctx context.Context, userID id.UserID) {
	if err := c.client.Del(ctx, keyPrefix+userID.String()).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "restriction cache invalidation failed", "error", err)
	}
}
