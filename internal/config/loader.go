// Package config loads proxyscout configuration with viper. Defaults are
// registered in code, a YAML file is discovered through the app identity's
// XDG config directory, and environment variables use the identity prefix.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/proxyscout/proxyscout/internal/appid"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// EnvVarSpec maps a short environment variable onto a config path.
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.requests_per_second", 2.0)
	v.SetDefault("server.burst", 5)

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("source.url", "https://api.proxyscrape.com/")
	v.SetDefault("source.timeout", "15s")

	v.SetDefault("verifier.url", "https://api.proxyscrape.com/v2/online_check.php")
	v.SetDefault("verifier.field", "ip_addr[]")
	v.SetDefault("verifier.timeout", "45s")

	v.SetDefault("batch.default_count", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)

	v.SetDefault("user_agent", "")
	v.SetDefault("rate_limits", []any{})
	v.SetDefault("rate_limit_margin", 0.9)
}

// ReadFile points v at explicit, or searches the XDG config directory and
// ./config for config.yaml. A missing file is not an error; the returned path
// is empty in that case.
func ReadFile(ctx context.Context, v *viper.Viper, explicit string) (string, error) {
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		configName, _ := appNamesForPaths(ctx)
		if dir := gfconfig.GetAppConfigDir(configName); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath("./config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config after applying defaults and environment
// overrides. Both PROXYSCOUT_<SECTION>_<KEY> and the short aliases from
// EnvSpecs are honoured.
func Load(ctx context.Context, v *viper.Viper) (*Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if v == nil {
		v = viper.GetViper()
	}

	SetDefaults(v)

	prefix := appid.EnvPrefix(ctx)
	v.SetEnvPrefix(strings.TrimSuffix(prefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases, err := gfconfig.LoadEnvOverrides(EnvSpecs(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	if len(aliases) > 0 {
		if err := v.MergeConfigMap(aliases); err != nil {
			return nil, fmt.Errorf("failed to merge environment overrides: %w", err)
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath(ctx)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Batch.DefaultCount < 1 || c.Batch.DefaultCount > 50 {
		return fmt.Errorf("batch.default_count must be between 1 and 50, got %d", c.Batch.DefaultCount)
	}
	if c.RateLimitMargin < 0 || c.RateLimitMargin > 1 {
		return fmt.Errorf("rate_limit_margin must be within [0, 1], got %v", c.RateLimitMargin)
	}
	if c.Source.Timeout < 0 || c.Verifier.Timeout < 0 {
		return errors.New("source and verifier timeouts must not be negative")
	}
	return nil
}

// GetConfig returns the last loaded configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// EnvSpecs returns the short environment aliases, e.g. PROXYSCOUT_PORT for
// server.port.
func EnvSpecs(prefix string) []EnvVarSpec {
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}

	return []EnvVarSpec{
		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},

		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		{Name: prefix + "DB_DRIVER", Path: []string{"store", "driver"}, Type: EnvString},
		{Name: prefix + "DB_PATH", Path: []string{"store", "path"}, Type: EnvString},
		{Name: prefix + "DB_URL", Path: []string{"store", "url"}, Type: EnvString},
		{Name: prefix + "DB_AUTH_TOKEN", Path: []string{"store", "auth_token"}, Type: EnvString},

		{Name: prefix + "COUNT", Path: []string{"batch", "default_count"}, Type: EnvInt},
	}
}

func appNamesForPaths(ctx context.Context) (configName string, binaryName string) {
	configName = "proxyscout"
	binaryName = "proxyscout"

	identity, err := appid.Get(ctx)
	if err != nil || identity == nil {
		return configName, binaryName
	}
	if strings.TrimSpace(identity.ConfigName) != "" {
		configName = identity.ConfigName
	}
	if strings.TrimSpace(identity.BinaryName) != "" {
		binaryName = identity.BinaryName
	}
	return configName, binaryName
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath(ctx context.Context) string {
	configName, _ := appNamesForPaths(ctx)
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath(ctx context.Context) string {
	configName, binaryName := appNamesForPaths(ctx)
	dataDir := gfconfig.GetAppDataDir(configName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + binaryName + ".db"
	}
	return filepath.Join(dataDir, binaryName+".db")
}
