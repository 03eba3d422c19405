package osfsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/db"
	"github.com/osfio/osfsearch/internal/db/memory"
	dbRedis "github.com/osfio/osfsearch/internal/db/redis"
	"github.com/osfio/osfsearch/internal/domain/entity"
	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/domain/search/result"
	"github.com/osfio/osfsearch/internal/engine"
	blevedrv "github.com/osfio/osfsearch/internal/engine/bleve"
	elasticdrv "github.com/osfio/osfsearch/internal/engine/elastic"
	"github.com/osfio/osfsearch/internal/engine/guard"
	"github.com/osfio/osfsearch/internal/logger"
	entityrepo "github.com/osfio/osfsearch/internal/repository/entity"
	"github.com/osfio/osfsearch/internal/repository/runstate"
	"github.com/osfio/osfsearch/internal/repository/searchindex"
	healthuc "github.com/osfio/osfsearch/internal/usecase/health"
	hookuc "github.com/osfio/osfsearch/internal/usecase/hook"
	indexuc "github.com/osfio/osfsearch/internal/usecase/index"
	reindexuc "github.com/osfio/osfsearch/internal/usecase/reindex"
	searchuc "github.com/osfio/osfsearch/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces for substitution in tests.
type entityStore interface {
	SaveNode(ctx context.Context, n *entity.Node) error
	SaveUser(ctx context.Context, u *entity.User) error
	DeleteNode(ctx context.Context, id string) error
}

type indexUseCase interface {
	UpdateNode(ctx context.Context, n *entity.Node) error
	UpdateUser(ctx context.Context, u *entity.User) error
	DeleteNode(ctx context.Context, n *entity.Node) error
	BulkUpdateContributors(ctx context.Context, nodes []*entity.Node) error
	CreateIndex(ctx context.Context) error
	DeleteIndex(ctx context.Context, name string) error
	Reset(ctx context.Context) error
	IndexName() string
}

type hookUseCase interface {
	NodeSaved(ctx context.Context, id string) (hookuc.Outcome, error)
	UserSaved(ctx context.Context, id string) (hookuc.Outcome, error)
	NodeDeleted(ctx context.Context, id string) (hookuc.Outcome, error)
}

type searchUseCase interface {
	Query(ctx context.Context, q query.Query) (*result.Set, error)
	Search(ctx context.Context, index string, body query.Body) (*result.Set, error)
	SearchContributor(ctx context.Context, req searchuc.ContributorRequest) (*result.ContributorPage, error)
}

type reindexUseCase interface {
	Run(ctx context.Context, opts reindexuc.Options) (*reindexuc.Report, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the osfsearch SDK entry point.
type Client struct {
	store     db.Store
	engine    engine.Engine
	entities  entityStore
	indexSvc  indexUseCase
	hookSvc   hookUseCase
	searchSvc searchUseCase
	reindex   reindexUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client, connects to the store and the engine, and creates
// the index when the engine is reachable. An unreachable engine is not an
// error: searches and index writes then fail with ErrSearchUnavailable.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{engine: engineBleve}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.keyPrefix == "" {
		cfg.keyPrefix = entityrepo.DefaultPrefix
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	eng, err := createEngine(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c := wireClient(ctx, store, eng, cfg, obs)
	if g, ok := c.engine.(*guard.Engine); ok && g.Available() {
		if err := c.indexSvc.CreateIndex(c.ctx(ctx)); err != nil {
			c.Close()
			return nil, fmt.Errorf("osfsearch: create index: %w", err)
		}
	}
	return c, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	if len(cfg.redisAddrs) == 0 {
		return memory.New(), nil
	}
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.redisAddrs,
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("osfsearch: create redis store: %w", err)
	}
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("osfsearch: store not ready: %w", err)
	}
	return s, nil
}

func createEngine(cfg *clientConfig) (engine.Engine, error) {
	switch cfg.engine {
	case engineElastic:
		e, err := elasticdrv.New(elasticdrv.Config{
			Addrs:          cfg.elasticAddrs,
			Username:       cfg.elasticUser,
			Password:       cfg.elasticPass,
			RefreshOnWrite: true,
		})
		if err != nil {
			return nil, fmt.Errorf("osfsearch: create elastic engine: %w", err)
		}
		return e, nil
	case engineBleve:
		e, err := blevedrv.New(blevedrv.Config{Path: cfg.blevePath, InMemory: cfg.blevePath == ""})
		if err != nil {
			return nil, fmt.Errorf("osfsearch: create bleve engine: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("osfsearch: unknown engine %q", cfg.engine)
	}
}

func wireClient(ctx context.Context, store db.Store, eng engine.Engine, cfg *clientConfig, obs *observer) *Client {
	g := guard.Connect(ctx, eng, obs.logger)

	entities := entityrepo.New(store, cfg.keyPrefix)
	idx := searchindex.New(g, cfg.index)
	indexSvc := indexuc.New(idx)

	return &Client{
		store:     store,
		engine:    g,
		entities:  entities,
		indexSvc:  indexSvc,
		hookSvc:   hookuc.New(entities, indexSvc),
		searchSvc: searchuc.New(idx, entities, searchuc.Config{GravatarSize: cfg.gravatarSize}),
		reindex: reindexuc.New(entities, indexSvc, runstate.New(store, cfg.keyPrefix),
			reindexuc.Config{RatePerSec: cfg.reindexRate}),
		healthSvc: healthuc.New(store, g),
		obs:       obs,
	}
}

// Close releases the engine and the store.
func (c *Client) Close() {
	if c.engine != nil {
		if err := c.engine.Close(); err != nil {
			c.obs.logger.Warn("close engine", zap.Error(err))
		}
	}
	if c.store != nil {
		c.store.Close()
	}
}

// ctx carries the client logger to the use cases.
func (c *Client) ctx(ctx context.Context) context.Context {
	return logger.ContextWithLogger(ctx, c.obs.logger)
}

// Health checks the store and the engine.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(c.ctx(ctx))
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// IndexName returns the configured index name.
func (c *Client) IndexName() string { return c.indexSvc.IndexName() }

// CreateIndex creates the index with its mapping. An existing index is kept.
func (c *Client) CreateIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("create_index", start, err) }()
	return c.indexSvc.CreateIndex(c.ctx(ctx))
}

// DeleteIndex drops the configured index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_index", start, err) }()
	return c.indexSvc.DeleteIndex(c.ctx(ctx), c.indexSvc.IndexName())
}

// ResetIndex drops and recreates the configured index.
func (c *Client) ResetIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reset_index", start, err) }()
	return c.indexSvc.Reset(c.ctx(ctx))
}

// Reindex rebuilds the index from every node and user in the store.
func (c *Client) Reindex(ctx context.Context, reset bool) (rep *ReindexReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reindex", start, err) }()
	return c.reindex.Run(c.ctx(ctx), reindexuc.Options{Reset: reset})
}

var errNilEntity = errors.New("osfsearch: nil entity")
