// Package bleve implements the search engine port on an embedded bleve index.
//
// Request bodies use the same DSL as Elasticsearch; the supported subset is
// translated into bleve queries. Document sources are kept in the index's
// internal key space so hits and partial updates can return and merge them.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/osfio/osfsearch/internal/engine"
)

// Compile-time check: Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// IndexSuffix is appended to index names on disk.
const IndexSuffix = ".bleve"

var errClosed = errors.New("bleve engine closed")

// Config selects where indexes live.
type Config struct {
	// Path is the directory holding one sub-directory per index.
	Path string
	// InMemory keeps every index in memory only. Path is ignored.
	InMemory bool
}

// Engine implements engine.Engine over bleve indexes.
type Engine struct {
	cfg     Config
	mu      sync.RWMutex
	indexes map[string]bleve.Index
	closed  bool

	// writeMu serializes writes so partial updates merge against current sources.
	writeMu sync.Mutex
}

// New creates a bleve engine. Persistent indexes are opened lazily.
func New(cfg Config) (*Engine, error) {
	if !cfg.InMemory {
		if cfg.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}
	return &Engine{cfg: cfg, indexes: make(map[string]bleve.Index)}, nil
}

// Ping reports whether the engine is open.
func (e *Engine) Ping(context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return engine.ConnError(engine.OpPing, errClosed)
	}
	return nil
}

// Close closes every open index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	var errs []error
	for name, idx := range e.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	e.indexes = nil
	return errors.Join(errs...)
}

func (e *Engine) indexPath(name string) string {
	return filepath.Join(e.cfg.Path, name+IndexSuffix)
}

// index returns the open index, opening it from disk on first use.
func (e *Engine) index(op, name string) (bleve.Index, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, engine.ConnError(op, errClosed)
	}
	idx, ok := e.indexes[name]
	e.mu.RUnlock()
	if ok {
		return idx, nil
	}
	if e.cfg.InMemory {
		return nil, indexNotFound(op, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, engine.ConnError(op, errClosed)
	}
	if idx, ok := e.indexes[name]; ok {
		return idx, nil
	}
	idx, err := bleve.Open(e.indexPath(name))
	if err != nil {
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			return nil, indexNotFound(op, name)
		}
		return nil, &engine.Error{Op: op, Status: 500, Type: "exception", Err: err}
	}
	e.indexes[name] = idx
	return idx, nil
}

func indexNotFound(op, name string) *engine.Error {
	return &engine.Error{
		Op:     op,
		Status: 404,
		Type:   engine.TypeIndexNotFound,
		Reason: "no such index [" + name + "]",
	}
}

func badRequest(op, typ, reason string) *engine.Error {
	return &engine.Error{Op: op, Status: 400, Type: typ, Reason: reason}
}

func internalError(op string, err error) *engine.Error {
	return &engine.Error{Op: op, Status: 500, Type: "exception", Reason: err.Error()}
}
