package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/proxyscout/proxyscout/internal/observability"
	"go.uber.org/zap"
)

// responseWriter records the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// knownEndpoints maps raw paths to metric labels when chi has no pattern,
// which happens for 404s and requests rejected before routing.
var knownEndpoints = map[string]string{
	"/health":         "/health/*",
	"/health/live":    "/health/*",
	"/health/ready":   "/health/*",
	"/health/startup": "/health/*",
	"/version":        "/version",
	"/metrics":        "/metrics",
	"/v1/proxies":     "/v1/proxies",
	"/v1/check":       "/v1/check",
	"/admin/signal":   "/admin/signal",
	"/":               "/",
}

// EndpointPattern maps a request to a low-cardinality endpoint label.
func EndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	if endpoint, ok := knownEndpoints[r.URL.Path]; ok {
		return endpoint
	}
	return "/unknown"
}

// RequestMetrics emits request counters, durations and sizes. Probe
// traffic is logged at debug to keep the request log readable.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if observability.TelemetrySystem == nil && observability.ServerLogger == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		requestSize := int64(0)
		if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
			if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
				requestSize = size
			}
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := EndpointPattern(r)
		logRequest(r, endpoint, wrapped, duration, requestSize)
		emitRequestMetrics(r, endpoint, wrapped, duration, requestSize)
	})
}

func emitRequestMetrics(r *http.Request, endpoint string, wrapped *responseWriter, duration time.Duration, requestSize int64) {
	if observability.TelemetrySystem == nil {
		return
	}

	commonLabels := map[string]string{
		"method":   r.Method,
		"endpoint": endpoint,
		"status":   strconv.Itoa(wrapped.statusCode),
	}

	_ = observability.TelemetrySystem.Counter(
		"http_requests_total",
		1,
		commonLabels,
	)

	_ = observability.TelemetrySystem.Histogram(
		"http_request_duration_ms",
		duration,
		commonLabels,
	)

	_ = observability.TelemetrySystem.Gauge(
		"http_request_size_bytes",
		float64(requestSize),
		map[string]string{
			"method":   r.Method,
			"endpoint": endpoint,
		},
	)

	_ = observability.TelemetrySystem.Gauge(
		"http_response_size_bytes",
		float64(wrapped.bytesWritten),
		map[string]string{
			"method":   r.Method,
			"endpoint": endpoint,
		},
	)

	if wrapped.statusCode >= 400 {
		errorType := "client_error"
		if wrapped.statusCode >= 500 {
			errorType = "server_error"
		}

		_ = observability.TelemetrySystem.Counter(
			"http_errors_total",
			1,
			map[string]string{
				"method":     r.Method,
				"endpoint":   endpoint,
				"status":     strconv.Itoa(wrapped.statusCode),
				"error_type": errorType,
			},
		)
	}
}

func logRequest(r *http.Request, endpoint string, rw *responseWriter, duration time.Duration, requestSize int64) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("endpoint", endpoint),
		zap.Int("status", rw.statusCode),
		zap.Duration("duration", duration),
		zap.Int64("request_size", requestSize),
		zap.Int64("response_size", rw.bytesWritten),
		zap.String("requestID", GetRequestID(r.Context())),
	}

	if endpoint == "/health/*" || endpoint == "/metrics" {
		logger.Debug("HTTP request completed", fields...)
		return
	}
	logger.Info("HTTP request completed", fields...)
}
