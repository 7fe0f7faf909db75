package oauth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStateStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "aac:oauth_state:"}
}

func (s *RedisStateStore) Put(ctx context.Context, state, verifier string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+state, verifier, ttl).Err()
}

func (s *RedisStateStore) PopVerifier(ctx context.Context, state string) (string, bool, error) {
	verifier, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return verifier, true, nil
}
