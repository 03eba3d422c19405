// Package runstate keeps the lock and last report of reindex runs in the
// key-value store, so runs are exclusive across processes.
package runstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osfio/osfsearch/internal/db"
)

// store is the consumer interface for run state (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// Store implements the reindex lock and report on top of DB (SET NX PX + GET).
type Store struct {
	store  store
	prefix string
}

// New creates a run state store. Keys are namespaced by prefix.
func New(s store, prefix string) *Store {
	return &Store{store: s, prefix: prefix}
}

func (s *Store) lockKey() string   { return s.prefix + "reindex:lock" }
func (s *Store) reportKey() string { return s.prefix + "reindex:last" }

// Acquire takes the run lock for owner. The lock expires after ttl so a
// crashed run cannot block the next one forever.
func (s *Store) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.store.SetNX(ctx, s.lockKey(), []byte(owner), ttl)
	if err != nil {
		return false, fmt.Errorf("reindex lock SET NX: %w", err)
	}
	return ok, nil
}

// Release drops the run lock if owner still holds it.
func (s *Store) Release(ctx context.Context, owner string) error {
	data, err := s.store.Get(ctx, s.lockKey())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("reindex lock GET: %w", err)
	}
	if string(data) != owner {
		return nil
	}
	if err := s.store.Del(ctx, s.lockKey()); err != nil {
		return fmt.Errorf("reindex lock DEL: %w", err)
	}
	return nil
}

// SaveReport stores the encoded report of the last run.
func (s *Store) SaveReport(ctx context.Context, data []byte) error {
	if err := s.store.Set(ctx, s.reportKey(), data); err != nil {
		return fmt.Errorf("reindex report SET: %w", err)
	}
	return nil
}

// LastReport returns the encoded report of the last run, nil if none ran yet.
func (s *Store) LastReport(ctx context.Context) ([]byte, error) {
	data, err := s.store.Get(ctx, s.reportKey())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reindex report GET: %w", err)
	}
	return data, nil
}
