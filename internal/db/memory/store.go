// Package memory implements db.Store in process memory. It backs the embedded
// mode (bleve engine, no Redis) and tests. Only root JSON paths are supported.
package memory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/osfio/osfsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type entry struct {
	value   []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Store is a mutex-guarded key space.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string]entry), now: time.Now}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops every key.
func (s *Store) Close() {
	s.mu.Lock()
	s.data = make(map[string]entry)
	s.mu.Unlock()
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

func checkPath(p string) error {
	switch p {
	case "", "$", ".":
		return nil
	default:
		return fmt.Errorf("unsupported path %q", p)
	}
}

// JSONSet stores a document at the root path.
func (s *Store) JSONSet(_ context.Context, key, p string, data []byte) error {
	if err := checkPath(p); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	s.put(key, data, 0)
	return nil
}

// JSONSetMulti stores several documents.
func (s *Store) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	for _, it := range items {
		if err := s.JSONSet(ctx, it.Key, it.Path, it.Data); err != nil {
			return err
		}
	}
	return nil
}

// JSONGet returns the document stored at key.
func (s *Store) JSONGet(_ context.Context, key string, paths ...string) ([]byte, error) {
	for _, p := range paths {
		if err := checkPath(p); err != nil {
			return nil, &db.Error{Op: db.OpJSONGet, Err: err}
		}
	}
	v, ok := s.get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

// JSONMGet returns one entry per key, nil when missing.
func (s *Store) JSONMGet(_ context.Context, keys []string, p string) ([][]byte, error) {
	if err := checkPath(p); err != nil {
		return nil, &db.Error{Op: db.OpJSONMGet, Err: err}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := s.get(k); ok {
			out[i] = v
		}
	}
	return out, nil
}

// Get returns the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

// Set stores value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.put(key, value, 0)
	return nil
}

// SetWithTTL stores value with an expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.put(key, value, ttl)
	return nil
}

// SetNX stores value only if key is absent or expired.
func (s *Store) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.data[key]; ok && !e.expired(s.now()) {
		return false, nil
	}
	s.data[key] = s.entry(value, ttl)
	return true, nil
}

// Del removes key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Exists reports whether key holds a live value.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.get(key)
	return ok, nil
}

// Scan returns live keys matching a glob pattern, sorted.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	var keys []string
	for k, e := range s.data {
		if e.expired(now) {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) entry(value []byte, ttl time.Duration) entry {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	return e
}

func (s *Store) put(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	s.data[key] = s.entry(value, ttl)
	s.mu.Unlock()
}

func (s *Store) get(key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok || e.expired(s.now()) {
		return nil, false
	}
	return append([]byte(nil), e.value...), true
}
