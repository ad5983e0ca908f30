package checker

import (
	"net/http"
	"time"

	"github.com/proxyscout/proxyscout/internal/core/engine"
)

// Doer sends a single HTTP request. *http.Client satisfies it; wrapping it is
// the place to add retry or backoff without touching parsing or decoding.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	_ engine.CandidateSource = (*ProxyScrapeSource)(nil)
	_ engine.Verifier        = (*ProxyScrapeVerifier)(nil)
)

const defaultClientTimeout = 30 * time.Second

func clientOrDefault(client Doer) Doer {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultClientTimeout}
}
