// Package reindex rebuilds the search index from the entity store.
//
// A run reconciles whatever hooks missed. Runs are exclusive across
// processes and throttled to Config.RatePerSec index writes.
package reindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/logger"
)

// Defaults.
const (
	DefaultRatePerSec = 200
	DefaultBatchSize  = 100
	DefaultLockTTL    = time.Hour
)

// Config tunes a run.
type Config struct {
	// RatePerSec caps index writes per second.
	RatePerSec float64
	// BatchSize is the number of entities loaded per store round trip.
	BatchSize int
	// LockTTL bounds how long a crashed run keeps others out.
	LockTTL time.Duration
}

// Options selects what a run does.
type Options struct {
	// Reset deletes and recreates the index first, dropping documents of
	// entities no longer in the store.
	Reset bool
}

// Report summarizes a run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Nodes      int       `json:"nodes"`
	Users      int       `json:"users"`
	Deleted    int       `json:"deleted"`
	Failed     int       `json:"failed"`
}

// Service runs reindexes.
type Service struct {
	entities Entities
	index    Indexer
	state    RunState
	cfg      Config
	now      func() time.Time
}

// New creates a reindex service.
func New(entities Entities, index Indexer, state RunState, cfg Config) *Service {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = DefaultRatePerSec
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	return &Service{entities: entities, index: index, state: state, cfg: cfg, now: time.Now}
}

// Run re-maps every node and user and writes the result to the index.
// A run already in progress elsewhere yields domain.ErrReindexRunning.
// Per-entity write failures are counted, not returned.
func (s *Service) Run(ctx context.Context, opts Options) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), StartedAt: s.now()}
	log := logger.FromContext(ctx).With(zap.String("run_id", rep.RunID))

	ok, err := s.state.Acquire(ctx, rep.RunID, s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrReindexRunning
	}
	defer func() {
		// The run context may be done by now; the lock must still go.
		if err := s.state.Release(context.WithoutCancel(ctx), rep.RunID); err != nil {
			log.Warn("Failed to release reindex lock", zap.Error(err))
		}
	}()

	log.Info("Reindex started", zap.Bool("reset", opts.Reset))
	if opts.Reset {
		if err := s.index.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset index: %w", err)
		}
	}

	limiter := rate.NewLimiter(rate.Limit(s.cfg.RatePerSec), max(1, int(s.cfg.RatePerSec)))
	if err := s.nodes(ctx, log, limiter, rep); err != nil {
		return nil, err
	}
	if err := s.users(ctx, log, limiter, rep); err != nil {
		return nil, err
	}

	rep.FinishedAt = s.now()
	if data, err := json.Marshal(rep); err == nil {
		if err := s.state.SaveReport(ctx, data); err != nil {
			log.Warn("Failed to save reindex report", zap.Error(err))
		}
	}
	log.Info("Reindex finished",
		zap.Int("nodes", rep.Nodes),
		zap.Int("users", rep.Users),
		zap.Int("deleted", rep.Deleted),
		zap.Int("failed", rep.Failed),
		zap.Duration("took", rep.FinishedAt.Sub(rep.StartedAt)),
	)
	return rep, nil
}

// LastReport returns the report of the most recent finished run, nil if none.
func (s *Service) LastReport(ctx context.Context) (*Report, error) {
	data, err := s.state.LastReport(ctx)
	if err != nil || data == nil {
		return nil, err
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode reindex report: %w", err)
	}
	return &rep, nil
}

func (s *Service) nodes(ctx context.Context, log *zap.Logger, limiter *rate.Limiter, rep *Report) error {
	ids, err := s.entities.NodeIDs(ctx)
	if err != nil {
		return fmt.Errorf("list nodes: %w", err)
	}
	return batches(ids, s.cfg.BatchSize, func(batch []string) error {
		nodes, err := s.entities.GetNodes(ctx, batch)
		if err != nil {
			return fmt.Errorf("load nodes: %w", err)
		}
		for _, id := range batch {
			n, ok := nodes[id]
			if !ok {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("reindex interrupted: %w", err)
			}
			rep.Nodes++
			if !n.Indexable() {
				rep.Deleted++
			}
			if err := s.index.UpdateNode(ctx, n); err != nil {
				if errors.Is(err, domain.ErrSearchUnavailable) {
					return err
				}
				rep.Failed++
				log.Warn("Reindex node failed", zap.String("node_id", id), zap.Error(err))
			}
		}
		return nil
	})
}

func (s *Service) users(ctx context.Context, log *zap.Logger, limiter *rate.Limiter, rep *Report) error {
	ids, err := s.entities.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return batches(ids, s.cfg.BatchSize, func(batch []string) error {
		users, err := s.entities.GetUsers(ctx, batch)
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		for _, id := range batch {
			u, ok := users[id]
			if !ok {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("reindex interrupted: %w", err)
			}
			rep.Users++
			if !u.IsActive {
				rep.Deleted++
			}
			if err := s.index.UpdateUser(ctx, u); err != nil {
				if errors.Is(err, domain.ErrSearchUnavailable) {
					return err
				}
				rep.Failed++
				log.Warn("Reindex user failed", zap.String("user_id", id), zap.Error(err))
			}
		}
		return nil
	})
}

func batches(ids []string, size int, fn func([]string) error) error {
	for start := 0; start < len(ids); start += size {
		if err := fn(ids[start:min(start+size, len(ids))]); err != nil {
			return err
		}
	}
	return nil
}
