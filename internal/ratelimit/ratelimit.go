// Package ratelimit implements fixed-window request limits keyed by client.
// The memory limiter is per process; the Redis limiter is shared by every API
// replica pointing at the same Redis.
package ratelimit

import (
	"context"
	"time"
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
