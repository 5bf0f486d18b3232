// Package ratelimit implements fixed-window request counting with
// pluggable backends: an in-process map for single-instance deployments
// and Redis for shared counting across instances.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config describes one fixed window.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Result reports the outcome of counting one request.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// RetryAfter returns how long the caller should wait before retrying.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Limiter counts a request against an identifier's current window.
type Limiter interface {
	Allow(ctx context.Context, identifier string, cfg Config) (Result, error)
}

type window struct {
	count     int
	resetTime time.Time
}

// MemoryLimiter is a process-local fixed-window limiter. Expired windows
// are pruned opportunistically: on every sweepEvery-th call, and
// unconditionally once the map exceeds maxEntries.
type MemoryLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	calls      uint64
	maxEntries int
}

const sweepEvery = 64

// NewMemoryLimiter creates a limiter that starts pruning aggressively once
// it tracks more than maxEntries identifiers.
func NewMemoryLimiter(maxEntries int) *MemoryLimiter {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryLimiter{
		windows:    make(map[string]*window),
		maxEntries: maxEntries,
	}
}

// Allow counts one request. A window past its reset time restarts with a
// fresh count of 1; otherwise the count increments and the request is
// allowed while count <= MaxRequests.
func (l *MemoryLimiter) Allow(_ context.Context, identifier string, cfg Config) (Result, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 || len(l.windows) > l.maxEntries {
		l.sweep(now)
	}

	w, ok := l.windows[identifier]
	if !ok || now.After(w.resetTime) {
		w = &window{count: 1, resetTime: now.Add(cfg.Window)}
		l.windows[identifier] = w
	} else {
		w.count++
	}

	remaining := cfg.MaxRequests - w.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   w.count <= cfg.MaxRequests,
		Remaining: remaining,
		ResetTime: w.resetTime,
	}, nil
}

// sweep drops expired windows. Caller holds the mutex.
func (l *MemoryLimiter) sweep(now time.Time) {
	for id, w := range l.windows {
		if now.After(w.resetTime) {
			delete(l.windows, id)
		}
	}
}

// Size reports the number of tracked identifiers.
func (l *MemoryLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
