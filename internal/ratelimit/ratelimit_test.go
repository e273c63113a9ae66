package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_BlocksAfterLimit(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	clock = clock.Add(20 * time.Second)

	d, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40*time.Second, d.RetryAfter)

	other, _ := l.Allow(ctx, "5.6.7.8")
	assert.True(t, other.Allowed, "keys are independent")
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	ctx := context.Background()

	d, _ := l.Allow(ctx, "k")
	require.True(t, d.Allowed)
	d, _ = l.Allow(ctx, "k")
	require.False(t, d.Allowed)

	clock = clock.Add(61 * time.Second)

	d, _ = l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
}

// Runs only when a Redis is reachable, e.g. REDIS_TEST_ADDR=127.0.0.1:6379.
func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLimiter(rdb, "test-"+uuid.NewString(), 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := l.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestRedisLimiter_DecideAndExpiry(t *testing.T) {
	assert.True(t, needsExpiry(-1))
	assert.True(t, needsExpiry(-2))
	assert.False(t, needsExpiry(30*time.Second))

	assert.Equal(t, Decision{Allowed: true}, decide(2, time.Minute, 2))
	assert.Equal(t, Decision{Allowed: false, RetryAfter: 40 * time.Second}, decide(3, 40*time.Second, 2))
}

// A counter left without a TTL, as after a failed PEXPIRE, must get one back.
func TestRedisLimiter_RestoresMissingTTL(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := "test-" + uuid.NewString()
	l := NewRedisLimiter(rdb, prefix, 1, time.Minute)
	ctx := context.Background()

	k := prefix + ":client"
	require.NoError(t, rdb.Set(ctx, k, 5, 0).Err())
	t.Cleanup(func() { _ = rdb.Del(context.Background(), k).Err() })

	d, err := l.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	ttl, err := rdb.PTTL(ctx, k).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
