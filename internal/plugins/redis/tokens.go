package redis

import (
	"context"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"

	"github.com/redis/go-redis/v9"
)

// RedisTokenStore records revoked token ids with a TTL equal to the
// token's remaining lifetime.
type RedisTokenStore struct {
	rdb *redis.Client
}

var _ contracts.TokenStore = (*RedisTokenStore)(nil)

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

func (s *RedisTokenStore) key(jti string) string {
	return "revoked:" + jti
}

func (s *RedisTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key(jti), 1, ttl).Err()
}

func (s *RedisTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
