package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/gyaneshwarpardhi/netbench/internal/api"
	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/dashboard"
	"github.com/gyaneshwarpardhi/netbench/internal/ingest"
	"github.com/gyaneshwarpardhi/netbench/internal/logging"
	"github.com/gyaneshwarpardhi/netbench/internal/source"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	cfgPath := flag.String("config", "", "Path to YAML config (defaults and environment only when empty)")
	flag.Parse()

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := logging.New(os.Stdout, cfg.Logging.Format, logging.ParseLevel(cfg.Logging.Level))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Source and dashboard state ───────────────────────────────────────────
	clock := clockwork.NewRealClock()
	src, err := source.New(ctx, cfg.Source, clock, logger)
	if err != nil {
		slog.Error("failed to build source", "kind", cfg.Source.Kind, "err", err)
		os.Exit(1)
	}
	slog.Info("source ready", "kind", cfg.Source.Kind, "lookback", cfg.Source.Lookback, "max_results", cfg.Source.MaxResults)

	norm := ingest.NewNormalizer(ctx, cfg.Ingest, logger)
	state, err := dashboard.New(dashboard.Config{
		Source:        src,
		Normalizer:    norm,
		Clock:         clock,
		Logger:        logger,
		Lookback:      cfg.Source.Lookback,
		MaxResults:    cfg.Source.MaxResults,
		Thresholds:    cfg.Anomaly,
		DefaultWindow: cfg.DefaultWindow(),
	})
	if err != nil {
		slog.Error("failed to build dashboard state", "err", err)
		os.Exit(1)
	}

	// ── Refresh scheduling ────────────────────────────────────────────────────
	var sched *dashboard.Scheduler
	if cfg.Refresh.IsEnabled() {
		sched = dashboard.NewScheduler(state, cfg.Refresh.Interval)
		sched.Start(ctx)
	} else if _, err := state.RefreshAsync(ctx); err != nil {
		slog.Warn("initial refresh not started", "err", err)
	}

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		if err := state.ApplyConfig(newCfg); err != nil {
			slog.Warn("hot-reload skipped: thresholds invalid", "err", err)
			return
		}
		slog.Info("config hot-reloaded", "default_window", newCfg.Filters.DefaultWindow, "thresholds", newCfg.Anomaly)
	})
	if *cfgPath != "" {
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.New(state, loader, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	if sched != nil {
		sched.Stop()
	}
	cancel() // stop normalizer workers
	norm.Close()
	slog.Info("goodbye")
}
