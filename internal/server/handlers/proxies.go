package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/proxyscout/proxyscout/internal/core"
	apperrors "github.com/proxyscout/proxyscout/internal/errors"
)

const maxCheckBodyBytes = 4 << 10

// ProxyChecker runs the proxy pipeline. *engine.Pipeline satisfies it.
type ProxyChecker interface {
	CheckOne(ctx context.Context, raw string) (*core.VerificationRecord, error)
	CheckBatch(ctx context.Context, count int) (*core.Report, error)
}

// CheckRequest is the POST /v1/check body.
type CheckRequest struct {
	Proxy string `json:"proxy"`
}

// ProxyHandlers serves the /v1 proxy endpoints.
type ProxyHandlers struct {
	Checker      ProxyChecker
	DefaultCount int
}

// ListProxies handles GET /v1/proxies?count=N.
func (h *ProxyHandlers) ListProxies(w http.ResponseWriter, r *http.Request) {
	count := h.DefaultCount
	if count < 1 {
		count = 1
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("count")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, r, apperrors.NewInvalidInputError("count must be an integer"))
			return
		}
		count = parsed
	}

	report, err := h.Checker.CheckBatch(r.Context(), count)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// CheckProxy handles GET /v1/check?proxy=ip:port and POST /v1/check.
func (h *ProxyHandlers) CheckProxy(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("proxy")
	if r.Method == http.MethodPost {
		var body CheckRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, maxCheckBodyBytes))
		if err := decoder.Decode(&body); err != nil {
			respondWithError(w, r, apperrors.NewInvalidInputError(`request body must be JSON like {"proxy":"ip:port"}`))
			return
		}
		raw = body.Proxy
	}

	// Surrounding whitespace belongs to the transport, not the address.
	record, err := h.Checker.CheckOne(r.Context(), strings.TrimSpace(raw))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}
