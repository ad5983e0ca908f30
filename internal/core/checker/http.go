package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/proxyscout/proxyscout/internal/core/engine"
	"github.com/proxyscout/proxyscout/internal/metrics"
)

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 8 << 20

func retryAfterHeader(resp *http.Response) (time.Duration, map[string]any) {
	if resp == nil || resp.Header == nil {
		return 0, nil
	}

	retry := resp.Header.Get("Retry-After")
	if retry == "" {
		return 0, nil
	}

	if seconds, err := time.ParseDuration(retry + "s"); err == nil {
		return seconds, map[string]any{"retry_after": retry}
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		return time.Until(parsed), map[string]any{"retry_after": retry}
	}

	return 0, map[string]any{"retry_after": retry}
}

// send performs exactly one upstream request. Any non-2xx status closes the
// body and becomes a NetworkError; callers own the body on success.
func send(ctx context.Context, client Doer, limiter *engine.RateLimiter, op string, req *http.Request) (*http.Response, error) {
	endpoint := req.URL.Hostname()
	target := req.URL.Redacted()
	started := time.Now()

	if limiter != nil && endpoint != "" {
		allowed, wait, err := limiter.Reserve(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("%s: rate limit state: %w", op, err)
		}
		if !allowed {
			metrics.RecordUpstream(op, "rate_limited", 0)
			return nil, &NetworkError{
				Op:         op,
				Endpoint:   target,
				StatusCode: http.StatusTooManyRequests,
				Err:        fmt.Errorf("%w, retry in %s", ErrRateLimited, wait.Round(time.Second)),
			}
		}
	}

	resp, err := clientOrDefault(client).Do(req)
	if err != nil {
		metrics.RecordUpstream(op, "transport_error", time.Since(started))
		return nil, &NetworkError{Op: op, Endpoint: target, Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		wait, _ := retryAfterHeader(resp)
		if limiter != nil && endpoint != "" && wait > 0 {
			_ = limiter.Record429(ctx, endpoint, wait)
		}
		drainAndClose(resp)
		metrics.RecordUpstream(op, "rate_limited", time.Since(started))
		return nil, &NetworkError{Op: op, Endpoint: target, StatusCode: resp.StatusCode, Err: ErrRateLimited}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drainAndClose(resp)
		metrics.RecordUpstream(op, "bad_status", time.Since(started))
		return nil, &NetworkError{Op: op, Endpoint: target, StatusCode: resp.StatusCode}
	}

	metrics.RecordUpstream(op, "ok", time.Since(started))
	return resp, nil
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
