package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every QRAWL_* variable Load consults so tests see
// only what they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"QRAWL_CONFIG", "QRAWL_HOST", "QRAWL_PORT", "QRAWL_MODE",
		"QRAWL_AUTH_ENABLED", "QRAWL_API_KEYS",
		"QRAWL_RATE_RPS", "QRAWL_RATE_BURST",
		"QRAWL_CACHE_MAX_ENTRIES", "QRAWL_HOME", "QRAWL_FETCH_TIMEOUT",
		"QRAWL_AUDIT_SCHEDULE", "QRAWL_WEBHOOK_URL", "QRAWL_WEBHOOK_SECRET",
		"QRAWL_LOG_LEVEL", "QRAWL_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 || cfg.Server.Mode != "release" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if !cfg.Auth.Enabled || len(cfg.Auth.APIKeys) != 0 {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.RateLimit.RequestsPerSecond != 5.0 || cfg.RateLimit.Burst != 10 {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Cache.MaxEntries != 1000 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if time.Duration(cfg.Fetch.Timeout) != 30*time.Second {
		t.Errorf("fetch timeout = %v", cfg.Fetch.Timeout)
	}
	if cfg.Audit.Schedule != "" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadReadsTOMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "qrawl.toml")
	doc := `
[server]
host = "127.0.0.1"
port = 9090
mode = "debug"

[auth]
enabled = false

[fetch]
timeout = "45s"

[audit]
schedule = "*/30 * * * *"

[webhook]
url = "https://hooks.example/qrawl"
secret = "hush"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QRAWL_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 || cfg.Server.Mode != "debug" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Auth.Enabled {
		t.Error("auth should be disabled by the file")
	}
	if time.Duration(cfg.Fetch.Timeout) != 45*time.Second {
		t.Errorf("fetch timeout = %v", cfg.Fetch.Timeout)
	}
	if cfg.Audit.Schedule != "*/30 * * * *" {
		t.Errorf("audit schedule = %q", cfg.Audit.Schedule)
	}
	if cfg.Webhook.URL != "https://hooks.example/qrawl" || cfg.Webhook.Secret != "hush" {
		t.Errorf("webhook = %+v", cfg.Webhook)
	}
	// Sections the file does not mention keep their defaults.
	if cfg.RateLimit.Burst != 10 {
		t.Errorf("burst = %d", cfg.RateLimit.Burst)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "qrawl.toml")
	doc := `
[server]
port = 9090

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QRAWL_CONFIG", path)
	t.Setenv("QRAWL_PORT", "7777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want env value 7777", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q, want file value", cfg.Log.Level)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("QRAWL_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestAPIKeysFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("QRAWL_API_KEYS", "alpha, beta ,gamma")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if len(cfg.Auth.APIKeys) != len(want) {
		t.Fatalf("keys = %v", cfg.Auth.APIKeys)
	}
	for i := range want {
		if cfg.Auth.APIKeys[i] != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, cfg.Auth.APIKeys[i], want[i])
		}
	}
}
