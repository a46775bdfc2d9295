// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"advisory-engine/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient owns the Redis connection behind the profile and comparison
// caches.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping verifies the connection; redis.NewClient does not dial eagerly.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// Del removes keys directly, bypassing the cache.Store prefixing. Test
// fixtures use it to reset known keys.
func (c *RedisClient) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// GetClient exposes the raw client for the cache.Store constructor.
func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
