package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/proxyscout/proxyscout/internal/core"
)

const rateLimitColumns = `endpoint, request_count, window_start_ms, backoff_until_ms, last_429_at_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

// GetRateLimit returns stored rate limit state for an upstream host, or nil
// when none is recorded.
func (s *Store) GetRateLimit(ctx context.Context, endpoint string) (*core.RateLimitState, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint = normalizeEndpoint(endpoint)
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+rateLimitColumns+` FROM rate_limits WHERE endpoint = ?`, endpoint)
	entry, err := scanRateLimit(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch rate limit: %w", err)
	}
	return &entry.State, nil
}

// UpdateRateLimit persists rate limit state for an upstream host.
func (s *Store) UpdateRateLimit(ctx context.Context, endpoint string, state *core.RateLimitState) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint = normalizeEndpoint(endpoint)
	if endpoint == "" {
		return errors.New("endpoint is required")
	}
	if state == nil {
		return errors.New("rate limit state is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO rate_limits (`+rateLimitColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			request_count = excluded.request_count,
			window_start_ms = excluded.window_start_ms,
			backoff_until_ms = excluded.backoff_until_ms,
			last_429_at_ms = excluded.last_429_at_ms
	`, endpoint, state.RequestCount, state.WindowStart.UTC().UnixMilli(), nullMillis(state.BackoffUntil), nullMillis(state.Last429At))
	if err != nil {
		return fmt.Errorf("store rate limit: %w", err)
	}

	return nil
}

func scanRateLimit(row rowScanner) (RateLimitEntry, error) {
	var (
		entry        RateLimitEntry
		windowStart  int64
		backoffUntil sql.NullInt64
		last429At    sql.NullInt64
	)
	if err := row.Scan(&entry.Endpoint, &entry.State.RequestCount, &windowStart, &backoffUntil, &last429At); err != nil {
		return RateLimitEntry{}, err
	}

	entry.State.WindowStart = time.UnixMilli(windowStart).UTC()
	entry.State.BackoffUntil = fromNullMillis(backoffUntil)
	entry.State.Last429At = fromNullMillis(last429At)
	return entry, nil
}

func nullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: value.UTC().UnixMilli(), Valid: true}
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := time.UnixMilli(value.Int64).UTC()
	return &t
}

func normalizeEndpoint(endpoint string) string {
	return strings.ToLower(strings.TrimSpace(endpoint))
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
