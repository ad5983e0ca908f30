package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/proxyscout/proxyscout/internal/core"
	"github.com/proxyscout/proxyscout/internal/core/engine"
)

const (
	verifyOp           = "verify candidates"
	defaultVerifierURL = "https://api.proxyscrape.com/v2/online_check.php"

	// DefaultBatchField is the repeated multipart field the checker reads.
	DefaultBatchField = "ip_addr[]"
)

// ProxyScrapeVerifier submits candidates to the ProxyScrape online checker.
type ProxyScrapeVerifier struct {
	Client    Doer
	Limiter   *engine.RateLimiter
	BaseURL   string
	Field     string
	UserAgent string
	Timeout   time.Duration
	Logger    *logging.Logger
}

// Verify checks all candidates in a single POST. An empty batch returns an
// empty result without touching the network.
func (v *ProxyScrapeVerifier) Verify(ctx context.Context, candidates []core.Candidate) (core.VerificationResult, error) {
	if v == nil {
		return nil, errors.New("verifier is not configured")
	}
	if len(candidates) == 0 {
		return core.VerificationResult{}, nil
	}

	body, contentType, err := EncodeBatch(v.field(), candidates)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, v.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if v.UserAgent != "" {
		req.Header.Set("User-Agent", v.UserAgent)
	}

	resp, err := send(ctx, v.Client, v.Limiter, verifyOp, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	result, err := DecodeResult(resp.Body)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, &NetworkError{Op: verifyOp, Endpoint: req.URL.Redacted(), Err: err}
	}

	if v.Logger != nil {
		v.Logger.Debug("Verified proxy batch",
			zap.String("endpoint", req.URL.Redacted()),
			zap.Int("submitted", len(candidates)),
			zap.Int("returned", len(result)))
	}

	return result, nil
}

// EncodeBatch writes one field entry per candidate, tagged with its index.
func EncodeBatch(field string, candidates []core.Candidate) (*bytes.Buffer, string, error) {
	if field == "" {
		field = DefaultBatchField
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for i, candidate := range candidates {
		if err := writer.WriteField(field, core.CorrelationTag(candidate, i)); err != nil {
			return nil, "", fmt.Errorf("encode batch: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("encode batch: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

// DecodeResult validates and parses a JSON array of verification records.
// Read failures are returned as-is; shape failures are DecodeErrors.
func DecodeResult(r io.Reader) (core.VerificationResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var items []json.RawMessage
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &DecodeError{Op: verifyOp, Err: errors.New("expected a JSON array")}
	}
	if err := validateVerificationPayload(trimmed); err != nil {
		return nil, &DecodeError{Op: verifyOp, Err: err}
	}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &DecodeError{Op: verifyOp, Err: err}
	}

	result := make(core.VerificationResult, 0, len(items))
	for i, item := range items {
		raw := bytes.TrimSpace(item)
		if len(raw) == 0 || raw[0] != '{' {
			return nil, &DecodeError{Op: verifyOp, Err: fmt.Errorf("record %d: expected a JSON object", i)}
		}

		var record core.VerificationRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, &DecodeError{Op: verifyOp, Err: fmt.Errorf("record %d: %w", i, err)}
		}
		result = append(result, record)
	}

	return result, nil
}

func (v *ProxyScrapeVerifier) endpoint() string {
	if v.BaseURL != "" {
		return v.BaseURL
	}
	return defaultVerifierURL
}

func (v *ProxyScrapeVerifier) field() string {
	if v.Field != "" {
		return v.Field
	}
	return DefaultBatchField
}
