package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxyscout/proxyscout/internal/core"
	"github.com/proxyscout/proxyscout/internal/core/engine"
	"github.com/proxyscout/proxyscout/internal/core/store"
	"github.com/proxyscout/proxyscout/internal/output"
)

func TestRenderRateLimitEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	backoff := now.Add(time.Minute)
	entries := []store.RateLimitEntry{
		{Endpoint: "api.proxyscrape.com", State: core.RateLimitState{RequestCount: 3, WindowStart: now, BackoffUntil: &backoff}},
		{Endpoint: "other.example", State: core.RateLimitState{RequestCount: 1, WindowStart: now}},
	}

	rendered, err := renderRateLimitEntries(output.FormatTable, entries, &engine.RateLimiter{}, now)
	require.NoError(t, err)
	assert.Contains(t, rendered, "api.proxyscrape.com: 3/60 per 1m0s, backoff_until=2026-01-01T12:01:00Z")
	assert.Contains(t, rendered, "other.example: 1/30 per 1m0s, backoff_until=-")

	rendered, err = renderRateLimitEntries(output.FormatTable, nil, &engine.RateLimiter{}, now)
	require.NoError(t, err)
	assert.Contains(t, rendered, "no stored rate limit state")

	rendered, err = renderRateLimitEntries(output.FormatJSON, entries, &engine.RateLimiter{}, now)
	require.NoError(t, err)
	assert.Contains(t, rendered, `"endpoint": "api.proxyscrape.com"`)
	assert.Contains(t, rendered, `"request_count": 3`)
}

func TestRenderRateLimitReset(t *testing.T) {
	rendered, err := renderRateLimitReset(output.FormatTable, 2, 0, true)
	require.NoError(t, err)
	assert.Equal(t, "Would delete 2 rate limit entr(ies)", rendered)

	rendered, err = renderRateLimitReset(output.FormatTable, 2, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "Deleted 2/2 rate limit entr(ies)", rendered)

	rendered, err = renderRateLimitReset(output.FormatJSON, 1, 1, false)
	require.NoError(t, err)
	assert.Contains(t, rendered, `"deleted": 1`)
}
