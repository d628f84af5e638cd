package redisinfra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/pulse-stream/pulse-api/internal/config"
)

// Cache is the ephemeral key-value store backing two-factor challenges,
// the catalog proxy cache and the auth middleware's user cache.
// A missing key is reported as (found=false), not an error, so callers
// can treat expiry and absence identically.
type Cache struct {
	client *redis.Client
}

func NewCache(cfg *config.Config) *Cache {
	return &Cache{client: redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})}
}

// NewCacheWithClient wraps an existing client; used by tests with miniature servers.
func NewCacheWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Ping verifies connectivity on startup.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
