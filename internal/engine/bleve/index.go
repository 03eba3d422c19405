package bleve

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"

	"github.com/osfio/osfsearch/internal/engine"
)

// CreateIndex creates the index. An existing index is kept with its mapping.
func (e *Engine) CreateIndex(_ context.Context, def *engine.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid index definition: %w", err)
	}
	if _, err := e.index(engine.OpCreateIndex, def.Name); err == nil {
		return nil
	} else if !engine.IsNotFound(err) {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return engine.ConnError(engine.OpCreateIndex, errClosed)
	}
	if _, ok := e.indexes[def.Name]; ok {
		return nil
	}

	m := buildMapping(def)
	var (
		idx bleve.Index
		err error
	)
	if e.cfg.InMemory {
		idx, err = bleve.NewMemOnly(m)
	} else {
		idx, err = bleve.New(e.indexPath(def.Name), m)
	}
	if err != nil {
		return internalError(engine.OpCreateIndex, err)
	}
	e.indexes[def.Name] = idx
	return nil
}

// DeleteIndex closes and removes the index. A missing index is not an error.
func (e *Engine) DeleteIndex(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return engine.ConnError(engine.OpDeleteIndex, errClosed)
	}

	if idx, ok := e.indexes[name]; ok {
		delete(e.indexes, name)
		if err := idx.Close(); err != nil {
			return internalError(engine.OpDeleteIndex, err)
		}
	}
	if e.cfg.InMemory {
		return nil
	}
	if err := os.RemoveAll(e.indexPath(name)); err != nil {
		return internalError(engine.OpDeleteIndex, err)
	}
	return nil
}

// IndexExists reports whether the index exists.
func (e *Engine) IndexExists(_ context.Context, name string) (bool, error) {
	_, err := e.index(engine.OpIndexExists, name)
	switch {
	case err == nil:
		return true, nil
	case engine.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}
