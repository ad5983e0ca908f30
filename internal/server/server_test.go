package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxyscout/proxyscout/internal/config"
	"github.com/proxyscout/proxyscout/internal/core"
	"github.com/proxyscout/proxyscout/internal/core/checker"
	"github.com/proxyscout/proxyscout/internal/core/engine"
	apperrors "github.com/proxyscout/proxyscout/internal/errors"
)

// newUpstreams starts a candidate list and an echoing verifier that marks
// every submitted candidate working.
func newUpstreams(t *testing.T, list string) *engine.Pipeline {
	t.Helper()

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(list))
	}))
	t.Cleanup(source.Close)

	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		records := make([]map[string]any, 0)
		for _, tag := range r.MultipartForm.Value[checker.DefaultBatchField] {
			address, index, _ := strings.Cut(tag, "-")
			ip, port, _ := strings.Cut(address, ":")
			records = append(records, map[string]any{
				"working": true, "type": "HTTP", "ip": ip, "port": port, "country": false, "ind": index,
			})
		}
		_ = json.NewEncoder(w).Encode(records)
	}))
	t.Cleanup(verifier.Close)

	return &engine.Pipeline{
		Source:   &checker.ProxyScrapeSource{Client: source.Client(), BaseURL: source.URL},
		Verifier: &checker.ProxyScrapeVerifier{Client: verifier.Client(), BaseURL: verifier.URL},
		Selector: &engine.Selector{Rand: engine.NewSeededSource(7)},
	}
}

func serve(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New(Options{Host: "127.0.0.1"})

	rec := serve(t, srv, http.MethodGet, "/does-not-exist", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestProxyRoutesAbsentWithoutChecker(t *testing.T) {
	srv := New(Options{Host: "127.0.0.1"})
	require.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodGet, "/v1/proxies", "").Code)
}

func TestListProxiesEndToEnd(t *testing.T) {
	pipeline := newUpstreams(t, "1.1.1.1:80\n2.2.2.2:8080\n3.3.3.3:3128\n")
	srv := New(Options{Host: "127.0.0.1", Checker: pipeline, DefaultCount: 1})

	rec := serve(t, srv, http.MethodGet, "/v1/proxies?count=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report core.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	require.Equal(t, core.ReportStatusOK, report.Status)
	require.Equal(t, 3, report.Fetched)
	require.Equal(t, 2, report.Sampled)
	require.Len(t, report.Working, 2)
	require.Equal(t, core.CorrelationTagged, report.Correlation)
	require.NotEmpty(t, report.RunID)
}

func TestListProxiesNoCandidates(t *testing.T) {
	pipeline := newUpstreams(t, "")
	srv := New(Options{Host: "127.0.0.1", Checker: pipeline})

	rec := serve(t, srv, http.MethodGet, "/v1/proxies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report core.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	require.Equal(t, core.ReportStatusNoCandidates, report.Status)
	require.Empty(t, report.Working)
}

func TestListProxiesRejectsInvalidCount(t *testing.T) {
	pipeline := newUpstreams(t, "1.1.1.1:80\n")
	srv := New(Options{Host: "127.0.0.1", Checker: pipeline})

	for _, count := range []string{"0", "51", "abc"} {
		rec := serve(t, srv, http.MethodGet, "/v1/proxies?count="+count, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, "count=%s", count)
		require.Equal(t, "INVALID_INPUT", errorCode(t, rec))
	}
}

func TestCheckEndToEnd(t *testing.T) {
	pipeline := newUpstreams(t, "")
	srv := New(Options{Host: "127.0.0.1", Checker: pipeline})

	rec := serve(t, srv, http.MethodPost, "/v1/check", `{"proxy":"9.9.9.9:3128"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var record core.VerificationRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&record))
	require.True(t, record.Working)
	require.Equal(t, "9.9.9.9", record.IP)
	require.Equal(t, "Unknown", record.Country.Display())

	rec = serve(t, srv, http.MethodGet, "/v1/check?proxy=9.9.9.9", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_INPUT", errorCode(t, rec))
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	pipeline := &engine.Pipeline{
		Source:   &checker.ProxyScrapeSource{Client: broken.Client(), BaseURL: broken.URL},
		Verifier: &checker.ProxyScrapeVerifier{Client: broken.Client(), BaseURL: broken.URL},
		Selector: &engine.Selector{},
	}
	srv := New(Options{Host: "127.0.0.1", Checker: pipeline})

	rec := serve(t, srv, http.MethodGet, "/v1/proxies?count=1", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "EXTERNAL_SERVICE_ERROR", errorCode(t, rec))
}

func TestProxyRoutesAreThrottled(t *testing.T) {
	pipeline := newUpstreams(t, "")
	srv := New(Options{Host: "127.0.0.1", Checker: pipeline, RequestsPerSecond: 0.01, Burst: 1})

	require.Equal(t, http.StatusOK, serve(t, srv, http.MethodGet, "/v1/check?proxy=1.1.1.1:80", "").Code)

	rec := serve(t, srv, http.MethodGet, "/v1/check?proxy=1.1.1.1:80", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "TOO_MANY_REQUESTS", errorCode(t, rec))

	require.NotEqual(t, http.StatusTooManyRequests, serve(t, srv, http.MethodGet, "/version", "").Code)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 9000
	cfg.Server.WriteTimeout = 90 * time.Second
	cfg.Server.RequestsPerSecond = 3
	cfg.Server.Burst = 6
	cfg.Batch.DefaultCount = 4

	opts := OptionsFromConfig(cfg, nil)
	require.Equal(t, "0.0.0.0", opts.Host)
	require.Equal(t, 9000, opts.Port)
	require.Equal(t, 90*time.Second, opts.WriteTimeout)
	require.Equal(t, 3.0, opts.RequestsPerSecond)
	require.Equal(t, 6, opts.Burst)
	require.Equal(t, 4, opts.DefaultCount)
}
