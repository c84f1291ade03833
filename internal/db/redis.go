package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient opens the client shared by the selection cache, the API
// rate limiter, and the activity feed. The upfront ping makes a bad
// REDIS_URL fail at boot instead of on the first tracked click.
func NewRedisClient(ctx context.Context, url string, log *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info("redis ready", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return client, nil
}
