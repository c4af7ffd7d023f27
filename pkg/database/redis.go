package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hindsightlog/hindsight/pkg/config"
)

// NewRedisClient creates a Redis client for the filter-metadata cache.
// Returns nil (cache disabled) when no host is configured; callers treat a
// nil client as "always miss".
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
