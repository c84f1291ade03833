package selection

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache keeps recent selections stable across repeated calls during one UI
// session. Advisory only: a miss or an error never changes correctness,
// just recompute cost.
type Cache interface {
	Get(ctx context.Context, key string) (*Selection, bool)
	Set(ctx context.Context, key string, sel *Selection)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Selection, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("selection cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, false
	}
	return &sel, true
}

func (c *RedisCache) Set(ctx context.Context, key string, sel *Selection) {
	data, err := json.Marshal(sel)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Debug("selection cache set failed", zap.String("key", key), zap.Error(err))
	}
}
