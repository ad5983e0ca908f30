// Package appid resolves the proxyscout application identity.
package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/proxyscout/proxyscout/internal/assets/appidentity"
)

func init() {
	// An explicit FULMEN_APP_IDENTITY_PATH or a discovered .fulmen/app.yaml
	// wins; the embedded copy only covers standalone binaries.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get returns the cached identity, loading it on first use.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// EnvPrefix returns the identity env prefix with a trailing underscore,
// falling back to PROXYSCOUT_.
func EnvPrefix(ctx context.Context) string {
	identity, err := Get(ctx)
	if err != nil || identity == nil || identity.EnvPrefix == "" {
		return "PROXYSCOUT_"
	}
	prefix := identity.EnvPrefix
	if prefix[len(prefix)-1] != '_' {
		prefix += "_"
	}
	return prefix
}
