// Package main is the entry point for the reposched daemon.
// It runs the scheduler engine and the HTTP controller in one process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reposched/internal/config"
	"reposched/internal/controller"
	"reposched/internal/logger"
	"reposched/internal/observability"
	"reposched/internal/repocreator"
	"reposched/internal/scheduler"
)

const serviceName = "reposchedd"

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting (postgres driver)")
	configPath := flag.String("config", "", "Path to config file (default: reposched.yaml in current directory)")
	flag.Parse()

	if err := run(*configPath, *migrateFlag); err != nil {
		slog.Error("reposchedd exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, migrate bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewWithLevel(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("failed to shutdown tracer", "error", err)
		}
	}()

	metricsHandler, shutdownMetrics, err := observability.InitMetrics(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Warn("failed to shutdown metrics", "error", err)
		}
	}()

	st, err := openStore(ctx, cfg, migrate, log)
	if err != nil {
		return err
	}
	defer st.Close()

	creator, err := repocreator.New(repocreator.Config{
		BaseURL: cfg.GitHubAPIURL,
		Timeout: cfg.ExecutionTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create github client: %w", err)
	}

	engine := scheduler.New(st, st, creator, scheduler.Config{
		SweepInterval:    cfg.SweepInterval,
		ExecutionTimeout: cfg.ExecutionTimeout,
		DefaultToken:     cfg.GitHubToken,
		Logger:           log,
	})
	if err := engine.Start(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(engine, st, controller.Options{
		Addr:           addr,
		APIToken:       cfg.APIToken,
		MultiUser:      cfg.MultiUser,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        metricsHandler,
		Logger:         log,
	})

	log.Info("reposchedd starting", "addr", addr, "store", cfg.StoreDriver)
	serveErr := srv.Run(ctx)
	if serveErr != nil {
		log.Error("server stopped", "error", serveErr)
	}

	log.Info("shutting down scheduler")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ExecutionTimeout+5*time.Second)
	defer cancel()
	if err := engine.Shutdown(shutdownCtx); err != nil {
		log.Warn("scheduler shutdown incomplete", "error", err)
	}

	return serveErr
}
