package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/metrics"
	asynqTransport "github.com/osfio/osfsearch/internal/transport/asynq"
	chiTransport "github.com/osfio/osfsearch/internal/transport/chi"
	"github.com/osfio/osfsearch/internal/version"
)

func serve(ctx context.Context, flags *rootFlags) error {
	cfg, err := flags.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := newApp(ctx, flags.env, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	logger.Info("Starting osfsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", flags.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine", cfg.Engine.Driver),
		zap.String("index", cfg.Engine.Index),
		zap.Bool("engine_available", a.engine.Available()),
	)

	if a.engine.Available() {
		if err := a.indexSvc.CreateIndex(a.ctx(ctx)); err != nil {
			logger.Error("Failed to create index", zap.Error(err))
		}
	}

	if cfg.Reindex.Schedule != "" {
		c, err := a.reindexSvc.Schedule(a.ctx(context.Background()), cfg.Reindex.Schedule, logger.Named("reindex"))
		if err != nil {
			return err
		}
		defer c.Stop()
		logger.Info("Reindex scheduled", zap.String("schedule", cfg.Reindex.Schedule))
	}

	// Pass nil interface (not typed nil pointer!) when tasks are disabled:
	// the server runs hooks inline only when tasks == nil.
	var tasks chiTransport.TaskQueue
	if cfg.Tasks.Enabled {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.Tasks.RedisAddr, Password: cfg.Tasks.RedisPassword}
		enq := asynqTransport.NewEnqueuer(redisOpt)
		defer func() {
			if err := enq.Close(); err != nil {
				logger.Warn("Error closing task client", zap.Error(err))
			}
		}()
		tasks = enq

		worker := asynqTransport.NewWorker(redisOpt, cfg.Tasks.Concurrency, a.hookSvc, logger)
		if err := worker.Start(); err != nil {
			return fmt.Errorf("start task worker: %w", err)
		}
		defer worker.Shutdown()
		logger.Info("Async hook delivery enabled",
			zap.String("redis_addr", cfg.Tasks.RedisAddr),
			zap.Int("concurrency", cfg.Tasks.Concurrency),
		)
	}

	server := chiTransport.NewServer(
		a.searchSvc, a.hookSvc, tasks, a.indexSvc, a.reindexSvc, a.healthSvc,
		chiTransport.Options{
			DefaultPageSize:     cfg.Search.DefaultPageSize,
			MaxPageSize:         cfg.Search.MaxPageSize,
			ContributorPageSize: cfg.Search.ContributorPageSize,
		},
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Mount(r, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
