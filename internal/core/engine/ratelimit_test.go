package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/proxyscout/proxyscout/internal/core"
)

type memoryRateStore struct {
	state map[string]*core.RateLimitState
}

func (m *memoryRateStore) GetRateLimit(ctx context.Context, endpoint string) (*core.RateLimitState, error) {
	if m.state == nil {
		return nil, nil
	}
	if val, ok := m.state[endpoint]; ok {
		copied := *val
		return &copied, nil
	}
	return nil, nil
}

func (m *memoryRateStore) UpdateRateLimit(ctx context.Context, endpoint string, state *core.RateLimitState) error {
	if m.state == nil {
		m.state = make(map[string]*core.RateLimitState)
	}
	copied := *state
	m.state[endpoint] = &copied
	return nil
}

func TestRateLimiterWindow(t *testing.T) {
	store := &memoryRateStore{}
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := &RateLimiter{
		Store: store,
		Limits: map[string]RateLimit{
			"list.example": {RequestsPerWindow: 1, WindowDuration: time.Minute},
		},
		Clock: func() time.Time { return clock },
	}

	allowed, _, err := limiter.Allow(context.Background(), "list.example")
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, limiter.Record(context.Background(), "list.example"))

	allowed, wait, err := limiter.Allow(context.Background(), "list.example")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, time.Minute, wait)

	clock = clock.Add(61 * time.Second)
	allowed, _, err = limiter.Allow(context.Background(), "list.example")
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, limiter.Record(context.Background(), "list.example"))
	require.Equal(t, 1, store.state["list.example"].RequestCount, "window resets on record")
}

func TestRateLimiterBackoff(t *testing.T) {
	store := &memoryRateStore{}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := &RateLimiter{
		Store: store,
		Clock: func() time.Time { return now },
	}

	require.NoError(t, limiter.Record429(context.Background(), "api.proxyscrape.com", 30*time.Second))

	allowed, wait, err := limiter.Allow(context.Background(), "api.proxyscrape.com")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 30*time.Second, wait)
	require.NotNil(t, store.state["api.proxyscrape.com"].Last429At)
}

func TestRateLimiterMargin(t *testing.T) {
	limiter := &RateLimiter{
		Limits: map[string]RateLimit{
			"list.example": {RequestsPerWindow: 10, WindowDuration: time.Minute},
		},
	}

	limiter.ApplySafetyMargin(0.9)
	require.Equal(t, 9, limiter.Limit("list.example").RequestsPerWindow)

	limiter.ApplySafetyMargin(1.5)
	require.Equal(t, 0.9, limiter.Margin, "out of range margin is ignored")
}

func TestRateLimiterOverrides(t *testing.T) {
	limiter := &RateLimiter{}
	limiter.ApplyOverrides(map[string]int{" API.ProxyScrape.com ": 5, "bad.example": 0})

	require.Equal(t, 5, limiter.Limit("api.proxyscrape.com").RequestsPerWindow)
	require.Equal(t, fallbackLimit, limiter.Limit("bad.example"))
}

func TestRateLimiterNilStoreAllows(t *testing.T) {
	var limiter *RateLimiter
	allowed, wait, err := limiter.Allow(context.Background(), "api.proxyscrape.com")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, wait)
	require.NoError(t, limiter.Record(context.Background(), "api.proxyscrape.com"))
}

func TestRateLimiterReserveIsAtomic(t *testing.T) {
	store := &memoryRateStore{}
	limiter := &RateLimiter{
		Store:  store,
		Limits: map[string]RateLimit{"api.proxyscrape.com": {RequestsPerWindow: 5, WindowDuration: time.Minute}},
	}

	var granted int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _, err := limiter.Reserve(context.Background(), "api.proxyscrape.com")
			if err == nil && allowed {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(5), atomic.LoadInt32(&granted))
	require.Equal(t, 5, store.state["api.proxyscrape.com"].RequestCount)
}

func TestRateLimiterReserveWithoutStore(t *testing.T) {
	var limiter *RateLimiter
	allowed, wait, err := limiter.Reserve(context.Background(), "api.proxyscrape.com")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, wait)
}
