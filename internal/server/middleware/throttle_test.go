package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottleRejectsAfterBurst(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	throttle := NewThrottle(1, 2, nil)
	throttle.now = func() time.Time { return now }

	handler := throttle.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/proxies", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusNoContent, call("10.0.0.1:1111").Code)
	require.Equal(t, http.StatusNoContent, call("10.0.0.1:2222").Code)

	limited := call("10.0.0.1:3333")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	require.Equal(t, "1", limited.Header().Get("Retry-After"))

	require.Equal(t, http.StatusNoContent, call("10.0.0.2:1111").Code, "clients are limited independently")

	now = now.Add(time.Second)
	require.Equal(t, http.StatusNoContent, call("10.0.0.1:4444").Code)
}

func TestThrottleDisabled(t *testing.T) {
	throttle := NewThrottle(0, 0, nil)
	handler := throttle.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/check", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestThrottleCustomResponder(t *testing.T) {
	var called bool
	throttle := NewThrottle(0.001, 1, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})
	handler := throttle.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/check", nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/check", nil))

	require.True(t, called)
	require.Equal(t, http.StatusTeapot, rec.Code)
}
