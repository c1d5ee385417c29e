package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter keeps one ZSET per key whose members are hits scored by
// their unix-millisecond timestamp.
type RedisRateLimiter struct {
	rdb *redis.Client
}

var _ contracts.RateLimiter = (*RedisRateLimiter)(nil)

func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb}
}

func (l *RedisRateLimiter) Allow(
	ctx context.Context,
	key string,
	limit int,
	window time.Duration,
) (bool, int, error) {
	zkey := "ratelimit:" + key
	now := time.Now()
	floor := now.Add(-window).UnixMilli()

	pipe := l.rdb.TxPipeline()
	// Drop hits that fell out of the window (self-cleaning)
	pipe.ZRemRangeByScore(ctx, zkey, "-inf", "("+strconv.FormatInt(floor, 10))
	pipe.ZAdd(ctx, zkey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	card := pipe.ZCard(ctx, zkey)
	// Expire the whole set so idle clients don't leak memory
	pipe.PExpire(ctx, zkey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, limit, err
	}
	count := int(card.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= limit, remaining, nil
}
