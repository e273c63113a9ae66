package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (l *RedisLimiter) key(k string) string {
	return l.prefix + ":" + k
}

// Allow increments the window counter and reads its TTL in one MULTI/EXEC.
// A counter without a TTL gets one, so a failed PEXPIRE never leaves a key
// that blocks its client forever.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := l.key(key)

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd

	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	ttl := pttl.Val()
	if needsExpiry(ttl) {
		if err := l.rdb.PExpire(ctx, k, l.window).Err(); err != nil {
			return Decision{}, err
		}
		ttl = l.window
	}

	return decide(incr.Val(), ttl, l.limit), nil
}

// PTTL reports -1 for a key without expiry and -2 for a missing key.
func needsExpiry(ttl time.Duration) bool {
	return ttl < 0
}

func decide(count int64, ttl time.Duration, limit int) Decision {
	if count <= int64(limit) {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, RetryAfter: ttl}
}
