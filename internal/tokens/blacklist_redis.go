package tokens

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBlacklist implements Blacklist with one SETEX per revocation, keyed
// under a fixed prefix so the keyspace doesn't collide with the nonce cache
// that also lives in the same Redis instance.
type RedisBlacklist struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBlacklist(rdb *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{rdb: rdb, prefix: "aac:blacklist:"}
}

func (b *RedisBlacklist) Add(ctx context.Context, id string, ttl time.Duration) error {
	return b.rdb.Set(ctx, b.prefix+id, "1", ttl).Err()
}

func (b *RedisBlacklist) Contains(ctx context.Context, id string) (bool, error) {
	n, err := b.rdb.Exists(ctx, b.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
