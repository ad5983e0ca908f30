//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/proxyscout/proxyscout/internal/config"
	"github.com/proxyscout/proxyscout/internal/core"
	"github.com/proxyscout/proxyscout/internal/core/engine"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenMigrated(context.Background(), config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenMemoryStore(t *testing.T) {
	store := openMemoryStore(t)
	require.Equal(t, "libsql", store.Driver())
	require.NoError(t, store.Ping(context.Background()))

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, schemaVersion, version)

	require.NoError(t, store.Migrate(context.Background()), "migrate is idempotent")
}

func TestRateLimitRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	missing, err := store.GetRateLimit(ctx, "api.proxyscrape.com")
	require.NoError(t, err)
	require.Nil(t, missing)

	window := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	backoff := window.Add(90 * time.Second)
	require.NoError(t, store.UpdateRateLimit(ctx, "API.proxyscrape.com", &core.RateLimitState{
		RequestCount: 3,
		WindowStart:  window,
		BackoffUntil: &backoff,
	}))

	state, err := store.GetRateLimit(ctx, "api.proxyscrape.com")
	require.NoError(t, err)
	require.Equal(t, 3, state.RequestCount)
	require.True(t, window.Equal(state.WindowStart))
	require.NotNil(t, state.BackoffUntil)
	require.True(t, backoff.Equal(*state.BackoffUntil))
	require.Nil(t, state.Last429At)
}

func TestRateLimiterAgainstStore(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	limiter := &engine.RateLimiter{
		Store:  store,
		Limits: map[string]engine.RateLimit{"api.proxyscrape.com": {RequestsPerWindow: 2, WindowDuration: time.Minute}},
		Clock:  func() time.Time { return now },
	}

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, "api.proxyscrape.com")
		require.NoError(t, err)
		require.True(t, allowed)
		require.NoError(t, limiter.Record(ctx, "api.proxyscrape.com"))
	}

	allowed, wait, err := limiter.Allow(ctx, "api.proxyscrape.com")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, time.Minute, wait)
}

func TestListAndResetRateLimits(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)
	now := time.Now().UTC()

	for _, host := range []string{"api.proxyscrape.com", "api.example.net", "mirror.example.org"} {
		require.NoError(t, store.UpdateRateLimit(ctx, host, &core.RateLimitState{RequestCount: 1, WindowStart: now}))
	}

	entries, err := store.ListRateLimits(ctx, RateLimitQuery{Prefix: "api."})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "api.example.net", entries[0].Endpoint)

	matched, err := store.CountRateLimits(ctx, RateLimitQuery{Prefix: "API."})
	require.NoError(t, err)
	require.Equal(t, 2, matched)

	removed, err := store.ResetRateLimits(ctx, RateLimitQuery{Endpoint: "mirror.example.org"})
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	removed, err = store.ResetRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	entries, err = store.ListRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestOpenFileStoreUsesWAL(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: "file:" + t.TempDir() + "/proxyscout.db"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.Equal(t, 1, store.DB.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
	require.Contains(t, journalMode, "wal")

	var busyTimeout int
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
	require.GreaterOrEqual(t, busyTimeout, 1000)
}
