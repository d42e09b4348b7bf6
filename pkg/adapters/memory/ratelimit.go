package memory

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/aretw0/abacus/pkg/ports"
	"golang.org/x/time/rate"
)

// RateLimiter implements ports.RateLimiter as a fixed window per key, the
// same accounting as the Redis limiter. Each window gets a bucket of limit
// tokens that never refills; the next window starts with a fresh bucket.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*fixedWindow
}

type fixedWindow struct {
	start   time.Time
	limiter *rate.Limiter
}

// RateLimiterOption configures a memory RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithClock replaces time.Now as the limiter's time source.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) {
		l.now = now
	}
}

// NewRateLimiter creates a limiter for limit requests per window.
func NewRateLimiter(limit int, window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	l := &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*fixedWindow),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow counts one request for key.
func (l *RateLimiter) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)

	w, ok := l.windows[key]
	if !ok {
		w = &fixedWindow{start: now, limiter: rate.NewLimiter(0, l.limit)}
		l.windows[key] = w
	}

	allowed := w.limiter.AllowN(now, 1)
	tokens := w.limiter.TokensAt(now)

	return ports.RateDecision{
		Allowed:   allowed,
		Limit:     l.limit,
		Remaining: max(int(math.Floor(tokens)), 0),
		ResetAt:   w.start.Add(l.window),
	}, nil
}

// prune drops windows that have ended.
func (l *RateLimiter) prune(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.start.Add(l.window)) {
			delete(l.windows, key)
		}
	}
}
