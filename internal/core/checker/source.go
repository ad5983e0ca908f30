package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/proxyscout/proxyscout/internal/core"
	"github.com/proxyscout/proxyscout/internal/core/engine"
)

const (
	fetchOp          = "fetch candidates"
	defaultSourceURL = "https://api.proxyscrape.com/"
)

// sourceQuery selects every protocol with the aggregator's 1500ms timeout
// filter. The values are fixed; only the base URL is configurable.
var sourceQuery = map[string]string{
	"request":   "displayproxies",
	"proxytype": "all",
	"timeout":   "1500",
}

// ProxyScrapeSource fetches candidate lists from the ProxyScrape aggregator.
type ProxyScrapeSource struct {
	Client    Doer
	Limiter   *engine.RateLimiter
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Logger    *logging.Logger
}

// FetchCandidates issues a fresh GET and parses the plaintext body.
func (s *ProxyScrapeSource) FetchCandidates(ctx context.Context) ([]core.Candidate, error) {
	if s == nil {
		return nil, errors.New("candidate source is not configured")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	endpoint := s.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/plain")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := send(ctx, s.Client, s.Limiter, fetchOp, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	body, truncated, err := readCompleteLines(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, &NetworkError{Op: fetchOp, Endpoint: req.URL.Redacted(), Err: err}
	}
	if truncated && s.Logger != nil {
		s.Logger.Warn("Candidate list exceeded size limit; keeping complete lines only",
			zap.String("endpoint", req.URL.Redacted()),
			zap.Int64("limit_bytes", maxBodyBytes))
	}

	candidates, err := core.ParseCandidates(bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Op: fetchOp, Endpoint: req.URL.Redacted(), Err: err}
	}

	if s.Logger != nil {
		s.Logger.Debug("Fetched proxy candidates",
			zap.String("endpoint", req.URL.Redacted()),
			zap.Int("count", len(candidates)))
	}

	return candidates, nil
}

// Endpoint returns the full aggregator URL including the fixed query.
func (s *ProxyScrapeSource) Endpoint() string {
	base := defaultSourceURL
	if s != nil && s.BaseURL != "" {
		base = s.BaseURL
	}

	parsed, err := url.Parse(base)
	if err != nil {
		parsed, _ = url.Parse(defaultSourceURL)
	}

	query := parsed.Query()
	for key, value := range sourceQuery {
		query.Set(key, value)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// readCompleteLines reads at most limit bytes. When the body is longer, the
// trailing partial line is dropped so a cut-off port is never parsed.
func readCompleteLines(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, fmt.Errorf("read candidate list: %w", err)
	}
	if int64(len(data)) <= limit {
		return data, false, nil
	}

	data = data[:limit]
	if end := bytes.LastIndexByte(data, '\n'); end >= 0 {
		return data[:end+1], true, nil
	}
	return nil, true, nil
}
