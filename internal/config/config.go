// Package config holds ctrip configuration, billing settings and the model pricing table.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// BillingMode selects how costs are presented.
type BillingMode string

const (
	// BillingAPI is pay-per-token usage: costs are real spend.
	BillingAPI BillingMode = "API"
	// BillingSub is a subscription plan: costs are an equivalent value estimate.
	BillingSub BillingMode = "Sub"
)

// Config holds all ctrip configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Billing BillingConfig `toml:"billing"`
	Cache   CacheConfig   `toml:"cache"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	ClaudeDir  string `toml:"claude_dir,omitempty"`
	RateLimits bool   `toml:"rate_limits"`
}

// BillingConfig is injected into the analytics scorer.
type BillingConfig struct {
	Mode         BillingMode `toml:"mode"`
	Icon         string      `toml:"icon"`
	SafetyMargin float64     `toml:"safety_margin"`
}

// CacheConfig bounds the session cache sweep.
type CacheConfig struct {
	MaxAgeHours int `toml:"max_age_hours"`
	MaxCount    int `toml:"max_count"`
}

// DefaultBilling returns the billing settings used when nothing is configured.
func DefaultBilling() BillingConfig {
	return BillingConfig{
		Mode:         BillingAPI,
		Icon:         "💳",
		SafetyMargin: 1.0,
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			RateLimits: true,
		},
		Billing: DefaultBilling(),
		Cache: CacheConfig{
			MaxAgeHours: 24,
			MaxCount:    50,
		},
	}
}

// Normalized returns b with invalid values replaced by defaults.
func (b BillingConfig) Normalized() BillingConfig {
	def := DefaultBilling()
	if b.Mode != BillingAPI && b.Mode != BillingSub {
		b.Mode = def.Mode
	}
	if b.Icon == "" {
		b.Icon = def.Icon
	}
	if b.SafetyMargin <= 0 {
		b.SafetyMargin = def.SafetyMargin
	}
	return b
}

// IsSubscription reports whether costs should be shown as subscription value.
func (b BillingConfig) IsSubscription() bool {
	return b.Mode == BillingSub
}

// ClaudeDirPath returns the configured Claude data directory, defaulting to ~/.claude.
func (c Config) ClaudeDirPath() string {
	if c.General.ClaudeDir != "" {
		return c.General.ClaudeDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// SessionStatsDir returns the directory holding per-session cache files.
func (c Config) SessionStatsDir() string {
	return filepath.Join(c.ClaudeDirPath(), "session-stats")
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ctrip")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ctrip")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ctrip")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "ctrip")
}

// RateLimitDBPath returns the path of the rate-limit snapshot database.
func RateLimitDBPath() string {
	return filepath.Join(CacheDir(), "ratelimits.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Without a TOML file, billing settings fall back to the legacy hook config.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path. See Load.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			if legacy, ok := ReadLegacyBilling(cfg.ClaudeDirPath()); ok {
				cfg.Billing = legacy
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Billing = cfg.Billing.Normalized()

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's own config file
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
