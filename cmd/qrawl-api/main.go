package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/use-agent/qrawl/api"
	"github.com/use-agent/qrawl/cache"
	"github.com/use-agent/qrawl/cleaner"
	"github.com/use-agent/qrawl/config"
	"github.com/use-agent/qrawl/engine"
	"github.com/use-agent/qrawl/fetch"
	"github.com/use-agent/qrawl/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("qrawl-api starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
	)

	// ── 3. Open the policy store ────────────────────────────────────
	st, err := openStore(cfg.Store)
	if err != nil {
		slog.Error("failed to open policy store", "error", err)
		os.Exit(1)
	}
	slog.Info("policy store ready", "dir", st.Dir())

	// ── 4. Build the engine and helpers ─────────────────────────────
	fetch.SetTimeout(time.Duration(cfg.Fetch.Timeout))
	eng := engine.New(st)
	pipe := cleaner.NewPipeline()
	cc := cache.New(cfg.Cache.MaxEntries)

	// ── 4b. Scheduled policy audits ─────────────────────────────────
	var scheduler *cron.Cron
	if cfg.Audit.Schedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.Audit.Schedule, func() { runAudit(eng) }); err != nil {
			slog.Error("invalid audit schedule", "schedule", cfg.Audit.Schedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		slog.Info("policy audit scheduled", "schedule", cfg.Audit.Schedule)
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(eng, pipe, st, engine.LadderFetcher{}, cfg, cc, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	if scheduler != nil {
		scheduler.Stop()
		slog.Info("audit scheduler stopped")
	}

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("qrawl-api stopped")
}

// openStore resolves the policy directory: the configured home when set,
// else the per-user default.
func openStore(cfg config.StoreConfig) (*store.LocalFSStore, error) {
	if cfg.Home != "" {
		return store.NewLocalFSAt(filepath.Join(cfg.Home, "policies")), nil
	}
	return store.NewLocalFS()
}

// runAudit executes one scheduled audit pass and logs per-domain failures.
func runAudit(eng *engine.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	results, err := eng.AuditPolicies(ctx, false)
	if err != nil {
		slog.Error("scheduled audit failed", "error", err)
		return
	}

	pass, fail, drifted := 0, 0, 0
	for dom, entry := range results {
		if entry.Status != "pass" {
			fail++
			slog.Warn("policy failed audit", "domain", dom, "error", entry.Error)
			continue
		}
		pass++
		if entry.Drift {
			drifted++
			slog.Warn("policy structure drifted", "domain", dom)
		}
	}
	slog.Info("scheduled audit completed", "pass", pass, "fail", fail, "drift", drifted)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
