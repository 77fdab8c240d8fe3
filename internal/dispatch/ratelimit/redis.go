package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// GoRedisClient adapts a *redis.Client to the narrow RedisClient interface
// RedisLimiter depends on, keeping the go-redis import confined to this
// file and out of the interface's consumers.
type GoRedisClient struct {
	rdb *redis.Client
}

// NewGoRedisClient wraps rdb.
func NewGoRedisClient(rdb *redis.Client) *GoRedisClient {
	return &GoRedisClient{rdb: rdb}
}

// SetNX stores value at key with the given TTL. It issues a plain SET with
// expiry, not SET NX: marking an already-limited account overwrites the
// earlier reset time.
func (c *GoRedisClient) SetNX(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *GoRedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *GoRedisClient) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

var _ RedisClient = (*GoRedisClient)(nil)
