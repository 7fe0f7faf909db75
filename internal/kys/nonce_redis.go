package kys

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNonceCache backs NonceCache with a Redis SETNX so the replay window
// is shared across every instance verifying signed envelopes.
type RedisNonceCache struct {
	client *redis.Client
	prefix string
}

func NewRedisNonceCache(client *redis.Client) *RedisNonceCache {
	return &RedisNonceCache{client: client, prefix: "aac:nonce:"}
}

func (c *RedisNonceCache) Reserve(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+nonce, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	// SetNX reports true when the key was newly set; false means it already
	// existed, i.e. this nonce was already reserved.
	return !ok, nil
}
