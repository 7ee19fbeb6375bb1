package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedis stores every key under namespace so DeletePrefix never touches
// keys owned by other applications sharing the instance.
func NewRedis(rdb *redis.Client, namespace string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Redis{rdb: rdb, namespace: namespace, ttl: ttl}
}

func (c *Redis) key(k string) string {
	return c.namespace + ":" + k
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return val, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, val []byte) error {
	err := c.rdb.Set(ctx, c.key(key), val, c.ttl).Err()

	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64

	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.key(prefix)+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", prefix, err)
		}

		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del %s: %w", prefix, err)
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}
