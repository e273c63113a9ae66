package ratelimit

import (
	"context"
	"sync"
	"time"
)

type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[key]

	if !ok || now.After(b.windowEnd) {
		l.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(l.window)}
		l.sweep(now)
		return Decision{Allowed: true}, nil
	}

	if b.count >= l.limit {
		retry := b.windowEnd.Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	b.count++
	return Decision{Allowed: true}, nil
}

// sweep drops expired buckets once the map grows, so one-off clients do not
// accumulate forever. Caller holds mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	if len(l.clients) < 1024 {
		return
	}
	for k, b := range l.clients {
		if now.After(b.windowEnd) {
			delete(l.clients, k)
		}
	}
}
