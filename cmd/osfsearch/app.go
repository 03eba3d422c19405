package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/config"
	"github.com/osfio/osfsearch/internal/db"
	"github.com/osfio/osfsearch/internal/db/memory"
	dbRedis "github.com/osfio/osfsearch/internal/db/redis"
	"github.com/osfio/osfsearch/internal/engine"
	blevedrv "github.com/osfio/osfsearch/internal/engine/bleve"
	elasticdrv "github.com/osfio/osfsearch/internal/engine/elastic"
	"github.com/osfio/osfsearch/internal/engine/guard"
	logpkg "github.com/osfio/osfsearch/internal/logger"
	"github.com/osfio/osfsearch/internal/metrics"
	entityrepo "github.com/osfio/osfsearch/internal/repository/entity"
	"github.com/osfio/osfsearch/internal/repository/runstate"
	"github.com/osfio/osfsearch/internal/repository/searchindex"
	healthuc "github.com/osfio/osfsearch/internal/usecase/health"
	hookuc "github.com/osfio/osfsearch/internal/usecase/hook"
	indexuc "github.com/osfio/osfsearch/internal/usecase/index"
	reindexuc "github.com/osfio/osfsearch/internal/usecase/reindex"
	searchuc "github.com/osfio/osfsearch/internal/usecase/search"
)

// app is the composition root shared by every subcommand.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  db.Store
	engine *guard.Engine

	entities   *entityrepo.Repo
	indexSvc   *indexuc.Service
	hookSvc    *hookuc.Service
	searchSvc  *searchuc.Service
	reindexSvc *reindexuc.Service
	healthSvc  *healthuc.Service
}

func newApp(ctx context.Context, env string, cfg config.Config) (*app, error) {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger = logpkg.WithFile(logger, logpkg.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Info("Connected to store", zap.String("driver", cfg.Store.Driver))

	// Registered before the guard so the availability gauge is exported.
	metrics.RegisterSearchMetrics()
	eng := guard.Connect(ctx, openEngine(cfg.Engine, logger), logger)
	if eng.Available() {
		logger.Info("Connected to search engine", zap.String("driver", cfg.Engine.Driver))
	}

	entities := entityrepo.New(store, cfg.Store.KeyPrefix)
	idx := searchindex.New(eng, cfg.Engine.Index)
	indexSvc := indexuc.New(idx)

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		engine:     eng,
		entities:   entities,
		indexSvc:   indexSvc,
		hookSvc:    hookuc.New(entities, indexSvc),
		searchSvc:  searchuc.New(idx, entities, searchuc.Config{GravatarSize: cfg.Search.GravatarSize}),
		reindexSvc: reindexuc.New(entities, indexSvc, runstate.New(store, cfg.Store.KeyPrefix), reindexuc.Config{RatePerSec: cfg.Reindex.RatePerSec}),
		healthSvc:  healthuc.New(store, eng),
	}, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case "memory":
		store = memory.New()
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	return store, nil
}

// openEngine builds the driver. A driver that fails to initialize yields
// nil, which the guard treats as permanently unavailable.
func openEngine(cfg config.EngineConfig, logger *zap.Logger) engine.Engine {
	switch cfg.Driver {
	case "bleve":
		e, err := blevedrv.New(blevedrv.Config{Path: cfg.BlevePath})
		if err != nil {
			logger.Error("Failed to create bleve engine", zap.Error(err))
			return nil
		}
		return e
	default:
		e, err := elasticdrv.New(elasticdrv.Config{
			Addrs:          cfg.Addrs,
			Username:       cfg.Username,
			Password:       cfg.Password,
			RequestTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
			HealthTimeout:  time.Duration(cfg.HealthTimeoutSec) * time.Second,
			RefreshOnWrite: cfg.RefreshOnWrite != nil && *cfg.RefreshOnWrite,
		})
		if err != nil {
			logger.Error("Failed to create elastic engine", zap.Error(err))
			return nil
		}
		return e
	}
}

// ctx attaches the app logger.
func (a *app) ctx(ctx context.Context) context.Context {
	return logpkg.ContextWithLogger(ctx, a.logger)
}

// Close releases the engine, the store and flushes the logger.
func (a *app) Close() {
	if err := a.engine.Close(); err != nil {
		a.logger.Warn("Error closing search engine", zap.Error(err))
	}
	a.store.Close()
	_ = a.logger.Sync()
}
