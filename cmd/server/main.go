package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"feedkeep/internal/infra/adapter/persistence/postgres"
	"feedkeep/internal/infra/db"
	"feedkeep/internal/infra/fetcher"
	httpapi "feedkeep/internal/handler/http"
	"feedkeep/internal/observability/logging"
	"feedkeep/internal/usecase/follow"
	"feedkeep/internal/usecase/ingest"
	"feedkeep/internal/usecase/refresh"
	"feedkeep/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	store := postgres.New(database)
	feedFetcher := fetcher.New(&http.Client{Timeout: 30 * time.Second})
	ingestor := ingest.New(feedFetcher, store)
	followSvc := follow.New(store, ingestor)

	interval := time.Duration(config.GetEnvInt("SCHEDULER_TIME_INTERVAL", 3000)) * time.Second
	scheduler := refresh.NewScheduler(store, ingestor, interval)

	version := config.GetEnvString("VERSION", "dev")
	router := httpapi.NewRouter(store, followSvc, database, version)

	addr := config.GetEnvString("HTTP_ADDR", ":8080")
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return rootCtx
		},
	}

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("scheduler started", slog.Duration("interval", interval))

	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-quit
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown failed", slog.Any("error", err))
	}

	rootCancel()
	logger.Info("shutdown complete")
}
