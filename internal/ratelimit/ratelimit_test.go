package ratelimit

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter(0)
	cfg := Config{Window: time.Minute, MaxRequests: 2}
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "client-a", cfg)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second, err := limiter.Allow(ctx, "client-a", cfg)
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := limiter.Allow(ctx, "client-a", cfg)
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Equal(t, 0, third.Remaining)

	// A different identifier gets its own window.
	other, err := limiter.Allow(ctx, "client-b", cfg)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	limiter := NewMemoryLimiter(0)
	cfg := Config{Window: 20 * time.Millisecond, MaxRequests: 1}
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "client", cfg)
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := limiter.Allow(ctx, "client", cfg)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	time.Sleep(30 * time.Millisecond)

	fresh, err := limiter.Allow(ctx, "client", cfg)
	require.NoError(t, err)
	assert.True(t, fresh.Allowed)
	assert.Equal(t, 0, fresh.Remaining)
}

func TestMemoryLimiterExactUnderConcurrency(t *testing.T) {
	limiter := NewMemoryLimiter(0)
	cfg := Config{Window: time.Minute, MaxRequests: 50}
	ctx := context.Background()

	const callers = 200
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := limiter.Allow(ctx, "shared", cfg)
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestMemoryLimiterSweepsExpiredWindows(t *testing.T) {
	limiter := NewMemoryLimiter(10)
	cfg := Config{Window: time.Millisecond, MaxRequests: 1}
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, err := limiter.Allow(ctx, string(rune('a'+i%26))+string(rune('0'+i/26)), cfg)
		require.NoError(t, err)
		time.Sleep(time.Millisecond / 2)
	}

	// Every window expired almost immediately, so the ceiling-triggered
	// sweeps must have kept the map from accumulating all identifiers.
	assert.Less(t, limiter.Size(), 100)
}

func TestResultRetryAfter(t *testing.T) {
	now := time.Now()
	res := Result{ResetTime: now.Add(30 * time.Second)}

	assert.InDelta(t, 30, res.RetryAfter(now).Seconds(), 1)
	assert.Equal(t, time.Duration(0), res.RetryAfter(now.Add(time.Minute)))
}

func TestClientKeyPrefersForwardedAddress(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.RemoteAddr = "192.0.2.1:4321"

	assert.Equal(t, "203.0.113.9", ClientKey(r))
}

func TestClientKeyFallsBackToRealIPThenPeer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Real-IP", "198.51.100.7")
	r.RemoteAddr = "192.0.2.1:4321"
	assert.Equal(t, "198.51.100.7", ClientKey(r))

	r.Header.Del("X-Real-IP")
	assert.Equal(t, "192.0.2.1", ClientKey(r))
}

func TestClientKeyFingerprintFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = ""
	r.Header.Set("User-Agent", "test-agent")
	r.Header.Set("Accept-Language", "en-US")

	key := ClientKey(r)
	assert.Contains(t, key, "fp:")

	// Same fingerprint inputs derive the same identifier.
	assert.Equal(t, key, ClientKey(r))
}
