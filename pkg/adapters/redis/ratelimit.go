package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/abacus/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// RateLimiter implements ports.RateLimiter as a fixed window counter shared
// by every replica.
type RateLimiter struct {
	client *backend.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter for limit requests per window.
func NewRateLimiter(client *backend.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// windowScript increments the counter and starts the window on first use.
var windowScript = backend.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// Allow counts one request for key.
func (l *RateLimiter) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	redisKey := l.prefix + "ratelimit:" + key

	res, err := windowScript.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 2 {
		return ports.RateDecision{}, fmt.Errorf("rate limit check failed: unexpected reply %v", res)
	}

	count := int(res[0])
	reset := time.Duration(res[1]) * time.Millisecond
	if reset <= 0 {
		reset = l.window
	}

	return ports.RateDecision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-count, 0),
		ResetAt:   time.Now().Add(reset),
	}, nil
}
