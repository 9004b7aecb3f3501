// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the PetHaul session gateway.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (and .env in development).
//  3. Connect to Redis (bearer tokens, saved login ids).
//  4. Connect to PostgreSQL and run migrations when auditing is enabled.
//  5. Wire the backend client, session layer and proxies.
//  6. Start the idle-session sweeper.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/pethaul/internal/api"
	"github.com/taibuivan/pethaul/internal/audit"
	"github.com/taibuivan/pethaul/internal/backend"
	"github.com/taibuivan/pethaul/internal/platform/config"
	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/migration"
	pgstore "github.com/taibuivan/pethaul/internal/platform/postgres"
	redisstore "github.com/taibuivan/pethaul/internal/platform/redis"
	"github.com/taibuivan/pethaul/internal/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[PetHaul] gateway_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("host", config.Hostname()),
		slog.Bool("audit_enabled", cfg.AuditEnabled()),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Audit Log (optional) ───────────────────────────────────────────
	var (
		pool     *pgxpool.Pool
		recorder audit.Recorder = audit.Nop{}
	)
	if cfg.AuditEnabled() {
		pool, err = pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")
		recorder = audit.NewPostgresRecorder(pool)
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	backendClient, err := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, cfg.TokenIssuePath)
	must(log, err, "create backend client")

	tokenStore := session.NewRedisTokenStore(rdb, cfg.TokenDefaultTTL)

	sessionService := session.NewService(backendClient, tokenStore, recorder, session.ServiceConfig{
		Bootstrap: session.BootstrapConfig{
			SettleDelay: cfg.TokenSettleDelay,
			Policy: session.RetryPolicy{
				MaxAttempts: cfg.TokenMaxAttempts,
				Base:        cfg.TokenBackoffBase,
				Increment:   cfg.TokenBackoffStep,
			},
		},
	})

	registry := session.NewRegistry(session.Reducer{MaxUncertainChecks: cfg.MaxUncertainChecks})

	storefrontProxy, err := api.NewStorefrontProxy(cfg.StorefrontURL)
	must(log, err, "create storefront proxy")

	// ── 6. Idle Session Sweeper ───────────────────────────────────────────
	sweeper := session.NewSweeper(registry, cfg.SessionSweepSchedule, cfg.SessionIdleTTL, log)
	must(log, sweeper.Start(), "start session sweeper")
	defer sweeper.Stop()

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	healthDeps := api.HealthDependencies{
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}
	if pool != nil {
		healthDeps.CheckDatabase = func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}
	}
	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, api.Handlers{
		Liveness:       liveness,
		Readiness:      readiness,
		Sessions:       registry,
		SessionService: sessionService,
		Auth:           session.NewHandler(sessionService),
		BackendAPI:     api.NewBackendProxy(backendClient.BaseURL(), sessionService),
		Storefront:     storefrontProxy,
	})

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
