// Reefwatch - Reefer fleet risk analytics.
// Copyright (c) 2025 opensource.ocean
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/api"
	"github.com/opensource-ocean/reefwatch/internal/assess"
	"github.com/opensource-ocean/reefwatch/internal/bus"
	"github.com/opensource-ocean/reefwatch/internal/cache"
	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/history"
	"github.com/opensource-ocean/reefwatch/internal/repository"
	"github.com/opensource-ocean/reefwatch/internal/rules"
	"github.com/opensource-ocean/reefwatch/internal/snapshot"
	"github.com/opensource-ocean/reefwatch/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("REEFWATCH_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting reefwatch",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for fleet profile via environment
	if os.Getenv("REEFWATCH_PROFILE") == "fleet" {
		cfg = domain.FleetConfig()
		slog.Info("running in fleet profile")
	}
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"profile", cfg.Profile,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Rule Engine
	engine, err := rules.NewEngine(100)
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}

	if err := loadRules(ctx, repo, engine); err != nil {
		slog.Error("failed to load rules", "error", err)
		os.Exit(1)
	}
	slog.Info("rule engine initialized", "rules_count", engine.RulesCount())

	// Initialize Assessment Processor
	processor := assess.NewProcessor(cfg.Analytics.AlertThreshold)
	slog.Info("assessment processor initialized", "threshold", processor.AlertThreshold)

	// Initialize Snapshot Holder and perform the first load
	holder := snapshot.NewHolder(repo, busImpl, cfg.Analytics)
	if _, err := holder.Reload(ctx); err != nil {
		slog.Warn("initial snapshot load failed, serving empty until reload", "error", err)
	}

	// Initialize History Client
	var historyClient domain.HistoryProvider
	if cfg.History.BaseURL != "" {
		historyClient = history.NewClient(cfg.History)
		slog.Info("history client initialized", "base_url", cfg.History.BaseURL)
	}

	// Initialize Alert Worker
	alertWorker := worker.NewWorker(busImpl, holder, engine, processor)
	if err := alertWorker.Start(); err != nil {
		slog.Error("failed to start alert worker", "error", err)
	} else if snap := holder.Current(); snap != nil {
		// The first reload happened before the worker subscribed; sweep it now.
		if err := alertWorker.Sweep(ctx, snap.Generation); err != nil {
			slog.Error("initial alert sweep failed", "error", err)
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, holder, engine, processor, historyClient, alertWorker, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("reefwatch is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop alert worker first
	if err := alertWorker.Stop(); err != nil {
		slog.Error("failed to stop alert worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("reefwatch shutdown complete")
}

// applyEnvOverrides maps a small set of environment variables onto the
// profile defaults.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("REEFWATCH_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("REEFWATCH_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("REEFWATCH_POSTGRES_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := os.Getenv("REEFWATCH_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("REEFWATCH_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REEFWATCH_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("REEFWATCH_HISTORY_URL"); v != "" {
		cfg.History.BaseURL = v
	}
}

// loadRules loads alert rules from the database into the engine,
// falling back to the builtin set when the table is empty.
func loadRules(ctx context.Context, repo domain.Repository, engine *rules.Engine) error {
	dbRules, err := repo.ListAlertRules(ctx)
	if err != nil {
		slog.Warn("failed to list rules from database", "error", err)
		return engine.LoadRules(rules.BuiltinRules())
	}

	if len(dbRules) > 0 {
		slog.Info("loading rules from database", "count", len(dbRules))
		return engine.LoadRules(dbRules)
	}

	slog.Info("no rules in database, loading builtin set")
	return engine.LoadRules(rules.BuiltinRules())
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║              🐟 REEFWATCH                 ║")
	fmt.Println("  ║      Reefer Fleet Risk Analytics          ║")
	fmt.Println("  ║     Eyes on every transshipment.          ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Profile:  %s\n", cfg.Profile)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /rankings                    - Ranked vessel table")
	fmt.Println("    GET  /score-buckets               - Suspicion score buckets")
	fmt.Println("    GET  /vessels/{mmsi}/timeline     - Vessel event timeline")
	fmt.Println("    GET  /vessels/{mmsi}/summary      - Descriptive summary")
	fmt.Println("    GET  /vessels/{mmsi}/events.csv   - Raw event export")
	fmt.Println("    GET  /vessels/{mmsi}/track        - Position track")
	fmt.Println("    GET  /alerts                      - Latest alert sweep")
	fmt.Println("    GET  /rules                       - List alert rules")
	fmt.Println("    POST /rules                       - Create an alert rule")
	fmt.Println("    POST /rules/reload                - Hot-reload rules")
	fmt.Println("    POST /snapshot/reload             - Reload the snapshot")
	fmt.Println("    GET  /health                      - Health check")
	fmt.Println()
}
