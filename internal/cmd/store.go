package cmd

import (
	"context"
	"errors"

	"github.com/proxyscout/proxyscout/internal/config"
	"github.com/proxyscout/proxyscout/internal/core/store"
)

// openStore opens the configured rate limit store for the admin commands.
func openStore(ctx context.Context) (*store.Store, *config.Config, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Store.Enabled {
		return nil, nil, errors.New("rate limit store is disabled (store.enabled=false)")
	}
	db, err := store.OpenMigrated(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}
