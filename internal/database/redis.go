// internal/database/redis.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"freestate-servicedelivery/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis for the per-resident submission
// limiter. Returns nil without error when no address is configured;
// the limiter is skipped in that case.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("Connected to Redis: %s", cfg.RedisAddr)
	return client, nil
}
