// Package config resolves application configuration from three layers:
// built-in defaults, an optional TOML file named by QRAWL_CONFIG, and
// QRAWL_* environment variables. Later layers win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Cache     CacheConfig     `toml:"cache"`
	Store     StoreConfig     `toml:"store"`
	Fetch     FetchConfig     `toml:"fetch"`
	Audit     AuditConfig     `toml:"audit"`
	Webhook   WebhookConfig   `toml:"webhook"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `toml:"host"` // default: "0.0.0.0"
	Port int    `toml:"port"` // default: 8080
	Mode string `toml:"mode"` // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `toml:"enabled"` // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string `toml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 `toml:"requests_per_second"` // default: 5

	// Burst is the maximum burst size per API key.
	Burst int `toml:"burst"` // default: 10
}

// CacheConfig controls the extraction response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int `toml:"max_entries"` // default: 1000
}

// StoreConfig controls policy persistence.
type StoreConfig struct {
	// Home overrides the base directory for policies. Empty means
	// $QRAWL_HOME or the user config dir.
	Home string `toml:"home"`
}

// FetchConfig controls outbound page fetching.
type FetchConfig struct {
	// Timeout is the per-request deadline.
	Timeout Duration `toml:"timeout"` // default: 30s
}

// Duration wraps time.Duration so TOML files can say "45s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// AuditConfig controls the periodic policy audit.
type AuditConfig struct {
	// Schedule is a cron spec ("*/30 * * * *"). Empty disables the audit.
	Schedule string `toml:"schedule"`
}

// WebhookConfig controls batch completion notifications.
type WebhookConfig struct {
	// URL receives batch.completed events. Empty disables delivery.
	URL string `toml:"url"`

	// Secret signs payloads with HMAC-SHA256 when non-empty.
	Secret string `toml:"secret"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level"`  // default: "info"
	Format string `toml:"format"` // "json" or "text"; default: "json"
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5.0,
			Burst:             10,
		},
		Cache: CacheConfig{
			MaxEntries: 1000,
		},
		Fetch: FetchConfig{
			Timeout: Duration(30 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load resolves the configuration. A TOML file is only consulted when
// QRAWL_CONFIG names one; environment variables always override it.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("QRAWL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays QRAWL_* variables. Each helper keeps the current
// value when the variable is unset or malformed, so the file layer
// survives untouched.
func applyEnv(c *Config) {
	c.Server.Host = envOr("QRAWL_HOST", c.Server.Host)
	c.Server.Port = envIntOr("QRAWL_PORT", c.Server.Port)
	c.Server.Mode = envOr("QRAWL_MODE", c.Server.Mode)

	c.Auth.Enabled = envBoolOr("QRAWL_AUTH_ENABLED", c.Auth.Enabled)
	c.Auth.APIKeys = envSliceOr("QRAWL_API_KEYS", c.Auth.APIKeys)

	c.RateLimit.RequestsPerSecond = envFloatOr("QRAWL_RATE_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = envIntOr("QRAWL_RATE_BURST", c.RateLimit.Burst)

	c.Cache.MaxEntries = envIntOr("QRAWL_CACHE_MAX_ENTRIES", c.Cache.MaxEntries)

	c.Store.Home = envOr("QRAWL_HOME", c.Store.Home)

	c.Fetch.Timeout = Duration(envDurationOr("QRAWL_FETCH_TIMEOUT", time.Duration(c.Fetch.Timeout)))

	c.Audit.Schedule = envOr("QRAWL_AUDIT_SCHEDULE", c.Audit.Schedule)

	c.Webhook.URL = envOr("QRAWL_WEBHOOK_URL", c.Webhook.URL)
	c.Webhook.Secret = envOr("QRAWL_WEBHOOK_SECRET", c.Webhook.Secret)

	c.Log.Level = envOr("QRAWL_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("QRAWL_LOG_FORMAT", c.Log.Format)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
