package server

import (
	"context"
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/proxyscout/proxyscout/internal/appid"
	"github.com/proxyscout/proxyscout/internal/observability"
	"github.com/proxyscout/proxyscout/internal/server/handlers"
	servermw "github.com/proxyscout/proxyscout/internal/server/middleware"
)

func (s *Server) registerRoutes() {
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/health/startup", handlers.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	s.registerProxyRoutes()
	s.registerAdminEndpoint()
}

// registerProxyRoutes mounts the throttled /v1 API when a checker is set.
func (s *Server) registerProxyRoutes() {
	if s.opts.Checker == nil {
		return
	}

	proxies := &handlers.ProxyHandlers{
		Checker:      s.opts.Checker,
		DefaultCount: s.opts.DefaultCount,
	}
	throttle := servermw.NewThrottle(s.opts.RequestsPerSecond, s.opts.Burst, handleThrottled)

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(throttle.Handler)
		r.Get("/proxies", proxies.ListProxies)
		r.Get("/check", proxies.CheckProxy)
		r.Post("/check", proxies.CheckProxy)
	})
}

// registerAdminEndpoint mounts /admin/signal when <PREFIX>ADMIN_TOKEN is set.
func (s *Server) registerAdminEndpoint() {
	envPrefix := appid.EnvPrefix(context.Background())
	adminToken := os.Getenv(envPrefix + "ADMIN_TOKEN")
	logger := observability.ServerLogger

	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no " + envPrefix + "ADMIN_TOKEN set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - do not expose this server to the public internet")
	}
}
