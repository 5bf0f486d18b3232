package ratelimit

import (
	"context"
	"time"
)

// Counter is the shared atomic counter a multi-instance deployment needs.
// The Redis client implements it with INCR plus a window-scoped expiry.
type Counter interface {
	CountRequest(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// RedisLimiter is a fixed-window limiter backed by a shared counter, for
// deployments where a process-local map would undercount.
type RedisLimiter struct {
	counter Counter
	prefix  string
}

func NewRedisLimiter(counter Counter) *RedisLimiter {
	return &RedisLimiter{counter: counter, prefix: "ratelimit:"}
}

// Allow counts one request against the shared window. The key's TTL is the
// window remainder, so the reset time falls out of the counter itself.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string, cfg Config) (Result, error) {
	count, ttl, err := l.counter.CountRequest(ctx, l.prefix+identifier, cfg.Window)
	if err != nil {
		return Result{}, err
	}

	remaining := cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= int64(cfg.MaxRequests),
		Remaining: remaining,
		ResetTime: time.Now().Add(ttl),
	}, nil
}
