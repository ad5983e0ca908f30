package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/proxyscout/proxyscout/internal/config"
	errwrap "github.com/proxyscout/proxyscout/internal/errors"
	"github.com/proxyscout/proxyscout/internal/metrics"
	"github.com/proxyscout/proxyscout/internal/observability"
	"github.com/proxyscout/proxyscout/internal/server"
	"github.com/proxyscout/proxyscout/internal/server/handlers"
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// upstreamConfigChecker reports unhealthy when either upstream URL is unset,
// which would make every /v1 call fail.
type upstreamConfigChecker struct {
	cfg *config.Config
}

func (u upstreamConfigChecker) CheckHealth(ctx context.Context) error {
	switch {
	case u.cfg == nil:
		return errwrap.NewConfigInvalidError("configuration not loaded")
	case u.cfg.Source.URL == "":
		return errwrap.NewConfigInvalidError("source.url is empty")
	case u.cfg.Verifier.URL == "":
		return errwrap.NewConfigInvalidError("verifier.url is empty")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API with graceful shutdown support.

Endpoints:
  GET  /v1/proxies?count=N   sample and verify N random proxies
  GET  /v1/check?proxy=ip:port
  POST /v1/check             {"proxy":"ip:port"}
  GET  /health, /version, /metrics

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read the config file (restart to apply changes)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	identity := GetAppIdentity()
	namespace := identity.TelemetryNamespace()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, cfg.Logging.Profile)
	logger := observability.ServerLogger

	metricsPort := 0
	if cfg.Metrics.Enabled {
		metricsPort = cfg.Metrics.Port
		if metricsPort == 0 {
			metricsPort = 9090
		}
		if err := observability.InitMetrics(identity.BinaryName, metricsPort, namespace); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "metrics initialization failed")
		}
		metrics.SetServerStartTime(time.Now())
	}

	deps, err := buildPipeline(ctx, cfg, observability.PipelineLogger())
	if err != nil {
		return err
	}

	logger.Info("Initializing server",
		zap.String("service", identity.BinaryName),
		zap.String("namespace", namespace),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("metrics_port", metricsPort),
		zap.Bool("rate_limit_store", deps.Store != nil),
		zap.String("source", cfg.Source.URL),
		zap.String("verifier", cfg.Verifier.URL))

	hm := handlers.InitHealthManager(versionInfo.Version)
	hm.RegisterChecker("upstream_config", upstreamConfigChecker{cfg: cfg})
	if cfg.Metrics.Enabled {
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
	}
	if deps.Store != nil {
		hm.RegisterReadinessChecker("rate_limit_store", handlers.HealthCheckFunc(deps.Store.Ping))
	}

	handlers.SetAppIdentity(identity)
	handlers.SetUpstreams(handlers.UpstreamInfo{Source: cfg.Source.URL, Verifier: cfg.Verifier.URL})

	srv := server.New(server.OptionsFromConfig(cfg, deps.Pipeline))

	// Shutdown handlers run LIFO: HTTP server, store, metrics exporter, logger.
	stopped := make(chan struct{})
	signals.OnShutdown(func(ctx context.Context) error {
		if err := logger.Sync(); err != nil {
			logger.Debug("Logger sync returned error (may be benign)", zap.Error(err))
		}
		close(stopped)
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		if err := observability.ShutdownMetrics(); err != nil {
			logger.Debug("Metrics exporter stop returned error", zap.Error(err))
		}
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		if err := deps.Close(); err != nil {
			logger.Warn("Failed to close rate limit store", zap.Error(err))
		}
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		if err := srv.Shutdown(ctx); err != nil {
			return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: re-reading config file")
		path, err := config.ReadFile(ctx, viper.GetViper(), cfgFile)
		if err != nil {
			logger.Error("Failed to reload config file", zap.Error(err))
			return errwrap.Wrap(ctx, errwrap.CodeConfigInvalid, err, "config reload failed")
		}
		if _, err := config.Load(ctx, viper.GetViper()); err != nil {
			logger.Error("Reloaded config is invalid", zap.Error(err))
			return errwrap.Wrap(ctx, errwrap.CodeConfigInvalid, err, "config reload failed")
		}
		logger.Info("Configuration re-read; restart to apply pipeline changes", zap.String("file", path))
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		_ = deps.Close()
		return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "server error")
	case <-stopped:
		return nil
	}
}
