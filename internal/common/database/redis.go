// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"brokerage-matchmaking/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the profile cache and the generation lock.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a pooled client. It does not dial; call Ping to verify.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	dial := config.GetDuration(cfg.DialTimeout)
	if dial <= 0 {
		dial = 5 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dial,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
	return &RedisClient{Client: rdb}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.Client.Options().Addr, err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
