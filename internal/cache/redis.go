package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rootNameKeyPrefix = "root_name"

// RedisCache shares root names between processes through Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache whose keys expire after ttl
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultRootNameTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func rootNameKey(treeID int) string {
	return fmt.Sprintf("%s:%d", rootNameKeyPrefix, treeID)
}

func (c *RedisCache) Get(ctx context.Context, treeID int) (string, bool, error) {
	name, err := c.client.Get(ctx, rootNameKey(treeID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read root name: %w", err)
	}
	return name, true, nil
}

func (c *RedisCache) Set(ctx context.Context, treeID int, name string) error {
	if err := c.client.Set(ctx, rootNameKey(treeID), name, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store root name: %w", err)
	}
	return nil
}
