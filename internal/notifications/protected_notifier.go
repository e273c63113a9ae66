package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

const (
	breakerClosed   = "closed"
	breakerOpen     = "open"
	breakerHalfOpen = "half_open"
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // per send
	FailureThreshold int           // consecutive failures before opening
	Cooldown         time.Duration // open -> half_open
	HalfOpenMaxCalls int
	Logger           *slog.Logger
}

func (c ProtectedNotifierConfig) withDefaults() ProtectedNotifierConfig {
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 15 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// ProtectedNotifier bounds each send with a timeout and trips a breaker after
// repeated provider failures, so a mail outage fails signups fast instead of
// holding requests open.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	now   func() time.Time

	mu       sync.Mutex
	state    string
	failures int
	openedAt time.Time
	trials   int
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		state: breakerClosed,
	}
}

func (n *ProtectedNotifier) SendNewsletterWelcome(ctx context.Context, in NewsletterSignup) error {
	if !n.acquire() {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := n.inner.SendNewsletterWelcome(sendCtx, in)

	// the caller going away says nothing about the provider
	if err != nil && ctx.Err() != nil {
		n.release(nil, false)
		return err
	}

	n.release(err, true)
	return err
}

func (n *ProtectedNotifier) State() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *ProtectedNotifier) acquire() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == breakerOpen {
		if n.now().Sub(n.openedAt) < n.cfg.Cooldown {
			return false
		}
		n.transition(breakerHalfOpen)
	}

	if n.state == breakerHalfOpen {
		if n.trials >= n.cfg.HalfOpenMaxCalls {
			return false
		}
		n.trials++
	}
	return true
}

// release records the outcome of a call admitted by acquire. When counted is
// false only the half-open slot is given back.
func (n *ProtectedNotifier) release(err error, counted bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == breakerHalfOpen && n.trials > 0 {
		n.trials--
	}
	if !counted {
		return
	}

	if err == nil {
		n.failures = 0
		if n.state != breakerClosed {
			n.transition(breakerClosed)
		}
		return
	}

	n.failures++
	if n.state == breakerHalfOpen || n.failures >= n.cfg.FailureThreshold {
		n.openedAt = n.now()
		if n.state != breakerOpen {
			n.transition(breakerOpen)
		}
	}
}

// caller holds mu
func (n *ProtectedNotifier) transition(to string) {
	n.cfg.Logger.Warn("newsletter notifier breaker", "from", n.state, "to", to, "failures", n.failures)
	n.state = to
}
