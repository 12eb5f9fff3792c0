// Package main implements the entry point for the downbeat server: the
// asynchronous media-download task pipeline plus its HTTP submission and
// result-query surface.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	r "github.com/redis/go-redis/v9"

	"github.com/phrazzld/downbeat/internal/api"
	"github.com/phrazzld/downbeat/internal/config"
	"github.com/phrazzld/downbeat/internal/notify"
	"github.com/phrazzld/downbeat/internal/platform/logger"
	"github.com/phrazzld/downbeat/internal/platform/musicapi"
	"github.com/phrazzld/downbeat/internal/platform/postgres"
	"github.com/phrazzld/downbeat/internal/redact"
	"github.com/phrazzld/downbeat/internal/result"
	"github.com/phrazzld/downbeat/internal/service"
	"github.com/phrazzld/downbeat/internal/task"
	"github.com/phrazzld/downbeat/internal/tasks"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Task.WorkerCount)

	// Durable task store.
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %s", redact.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Result backend.
	rdb := r.NewClient(&r.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	taskStore := postgres.NewTaskStore(db)
	backend := result.NewRedisBackend(rdb, cfg.Task.ResultTTL, appLogger)

	// Notification collaborators: constructed once, attached to every
	// invocation by the depends middleware.
	sender := notify.NewTelegramSender(cfg.Notify.BotToken, cfg.Notify.DeliveryAttempts, appLogger)
	localizer := notify.NewLocalizer()
	rescanner := notify.NewRescanner(cfg.Notify.Rescan, appLogger)
	dispatcher := notify.NewDispatcher(sender, localizer, rescanner, appLogger)

	// Task pipeline.
	queue := task.NewQueue(taskStore, cfg.Task.QueueSize, appLogger)
	registry := task.NewRegistry()
	tasks.Register(registry, musicapi.NewClient(cfg.Music.APIURL, appLogger))

	policy := task.NewRetryPolicy(cfg.Task.MaxAttempts, cfg.Task.RetryDelay, appLogger)
	middlewares := []task.Middleware{
		task.NewDependsMiddleware(sender, localizer),
	}

	runner := task.NewRunner(
		queue,
		taskStore,
		registry,
		policy,
		middlewares,
		dispatcher,
		backend,
		task.RunnerConfig{
			WorkerCount:            cfg.Task.WorkerCount,
			StuckTaskAge:           cfg.Task.StuckTaskAge,
			StuckTaskCheckInterval: cfg.Task.StuckTaskCheckInterval,
		},
		appLogger,
	)

	if err := runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	// HTTP submission and result-query surface.
	allocator := task.NewAllocator(cfg.Task.IDPrefix)
	taskService := service.NewTaskService(queue, allocator, backend)
	taskHandler := api.NewTaskHandler(taskService)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Mount("/v1", taskHandler.Routes())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-stop:
		appLogger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http server shutdown failed", "error", err)
	}

	runner.Stop()
	appLogger.Info("shutdown complete")
	return nil
}

// runMigrations applies the goose migrations from ./migrations.
func runMigrations(db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}
