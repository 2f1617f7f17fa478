package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trazzini/smstrack/internal/model"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type statusValue struct {
	Status model.Status `json:"status"`
	SeenAt time.Time    `json:"seenAt"`
}

func (c *RedisCache) StoreStatus(ctx context.Context, messageID string, status model.Status, seenAt time.Time) error {
	key := fmt.Sprintf("msg:%s", messageID)
	val := statusValue{
		Status: status,
		SeenAt: seenAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
