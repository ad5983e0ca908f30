package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/proxyscout/proxyscout/internal/config"
	"github.com/proxyscout/proxyscout/internal/core/checker"
	"github.com/proxyscout/proxyscout/internal/core/engine"
	"github.com/proxyscout/proxyscout/internal/core/store"
)

// runtimeDeps is the wired pipeline plus what has to be closed afterwards.
type runtimeDeps struct {
	Pipeline *engine.Pipeline
	Limiter  *engine.RateLimiter
	Store    *store.Store
}

func (d *runtimeDeps) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}

// buildPipeline wires source, verifier and the store-backed rate limiter
// from cfg. A store that cannot be opened disables rate limiting with a
// warning rather than failing the command.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*runtimeDeps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	deps := &runtimeDeps{Limiter: &engine.RateLimiter{}}
	if cfg.Store.Enabled {
		db, err := store.OpenMigrated(ctx, cfg.Store)
		if err != nil {
			if logger != nil {
				logger.Warn("Rate limit store unavailable; upstream calls are not rate limited",
					zap.String("driver", cfg.Store.Driver),
					zap.Error(err))
			}
		} else {
			deps.Store = db
			deps.Limiter.Store = db
		}
	}
	deps.Limiter.ApplyOverrides(cfg.RateLimitOverrides())
	deps.Limiter.ApplySafetyMargin(cfg.RateLimitMargin)

	client := &http.Client{}
	agent := userAgent(cfg)

	deps.Pipeline = &engine.Pipeline{
		Source: &checker.ProxyScrapeSource{
			Client:    client,
			Limiter:   deps.Limiter,
			BaseURL:   cfg.Source.URL,
			UserAgent: agent,
			Timeout:   cfg.Source.Timeout,
			Logger:    logger,
		},
		Verifier: &checker.ProxyScrapeVerifier{
			Client:    client,
			Limiter:   deps.Limiter,
			BaseURL:   cfg.Verifier.URL,
			Field:     cfg.Verifier.Field,
			UserAgent: agent,
			Timeout:   cfg.Verifier.Timeout,
			Logger:    logger,
		},
		Selector: &engine.Selector{},
		Logger:   logger,
	}

	return deps, nil
}

func userAgent(cfg *config.Config) string {
	if cfg != nil && strings.TrimSpace(cfg.UserAgent) != "" {
		return strings.TrimSpace(cfg.UserAgent)
	}
	name := "proxyscout"
	if appIdentity != nil && appIdentity.BinaryName != "" {
		name = appIdentity.BinaryName
	}
	version := versionInfo.Version
	if version == "" {
		version = "dev"
	}
	return name + "/" + version
}
