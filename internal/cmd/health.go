package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/proxyscout/proxyscout/internal/core/store"
	errwrap "github.com/proxyscout/proxyscout/internal/errors"
	"github.com/proxyscout/proxyscout/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify that configuration loads and the rate limit store is reachable. No upstream calls are made.",
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		logger.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		logger.Info("✅ Version information available", zap.String("version", versionInfo.Version))

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration is invalid", err)
			return
		}
		logger.Info("✅ Configuration loaded",
			zap.String("source", cfg.Source.URL),
			zap.String("verifier", cfg.Verifier.URL))

		if !cfg.Store.Enabled {
			logger.Info("➖ Rate limit store disabled")
		} else {
			db, err := store.OpenMigrated(cmd.Context(), cfg.Store)
			if err != nil {
				ExitWithCode(logger, foundry.ExitConfigInvalid, "Rate limit store unavailable", err)
				return
			}
			pingErr := db.Ping(cmd.Context())
			_ = db.Close()
			if pingErr != nil {
				ExitWithCode(logger, foundry.ExitConfigInvalid, "Rate limit store ping failed", pingErr)
				return
			}
			logger.Info("✅ Rate limit store reachable", zap.String("driver", db.Driver()))
		}

		logger.Info("")
		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
