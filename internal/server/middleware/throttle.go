package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	throttleSweepThreshold = 1024
	throttleIdleTTL        = 10 * time.Minute
)

// Throttle limits requests per client IP with a token bucket per client.
type Throttle struct {
	limit   rate.Limit
	burst   int
	onLimit http.HandlerFunc
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*throttleClient
}

type throttleClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewThrottle returns a throttle allowing perSecond requests with the given
// burst per client. onLimit writes the rejection; a nil onLimit sends a bare
// 429. A non-positive perSecond disables throttling.
func NewThrottle(perSecond float64, burst int, onLimit http.HandlerFunc) *Throttle {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}
	return &Throttle{
		limit:   limit,
		burst:   burst,
		onLimit: onLimit,
		now:     time.Now,
		clients: make(map[string]*throttleClient),
	}
}

// Handler wraps next with the per-client limit.
func (t *Throttle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t == nil || t.limit == rate.Inf {
			next.ServeHTTP(w, r)
			return
		}

		reservation := t.reserve(clientKey(r))
		if delay := reservation.DelayFrom(t.now()); delay > 0 {
			reservation.CancelAt(t.now())
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			t.onLimit(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (t *Throttle) reserve(key string) *rate.Reservation {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.clients) >= throttleSweepThreshold {
		for k, c := range t.clients {
			if now.Sub(c.lastSeen) > throttleIdleTTL {
				delete(t.clients, k)
			}
		}
	}

	c, ok := t.clients[key]
	if !ok {
		c = &throttleClient{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.ReserveN(now, 1)
}

// clientKey uses the remote host; chi's RealIP has already applied
// X-Forwarded-For / X-Real-IP when present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
