// Package guard wraps a search engine driver so that every failure leaves it
// as one of the domain search errors.
//
// The connection has two states. It starts Connected when the startup health
// check passes and becomes Unavailable on a failed check or on a later
// connection error. There is no way back: once Unavailable, every call fails
// fast with domain.ErrSearchUnavailable until the process restarts.
package guard

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/engine"
	"github.com/osfio/osfsearch/internal/metrics"
)

// Compile-time check: Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

const unavailableReason = "search engine is unavailable"

// parseSignatures identify a query the engine refused to parse.
var parseSignatures = []string{
	engine.TypeParse,
	engine.TypeParsing,
	"ParseException",
	"Failed to parse",
}

// Engine is an engine.Engine that translates driver errors.
type Engine struct {
	inner     engine.Engine
	logger    *zap.Logger
	available atomic.Bool
}

// Connect wraps inner and runs the startup health check. A nil inner engine
// (the client failed to initialize) yields a guard that is Unavailable from
// the start and never touches the network.
func Connect(ctx context.Context, inner engine.Engine, logger *zap.Logger) *Engine {
	g := &Engine{inner: inner, logger: logger}
	if inner == nil {
		logger.Warn("Search engine client not initialized, search disabled")
		g.setAvailable(false)
		return g
	}
	if err := inner.Ping(ctx); err != nil {
		logger.Warn("Search engine health check failed, search disabled", zap.Error(err))
		g.setAvailable(false)
		return g
	}
	g.setAvailable(true)
	return g
}

// Available reports whether the connection is still in the Connected state.
func (g *Engine) Available() bool {
	return g.available.Load()
}

func (g *Engine) setAvailable(v bool) {
	g.available.Store(v)
	if v {
		metrics.EngineAvailable.Set(1)
	} else {
		metrics.EngineAvailable.Set(0)
	}
}

// markUnavailable moves the connection to Unavailable. Idempotent.
func (g *Engine) markUnavailable(op string, err error) {
	if g.available.CompareAndSwap(true, false) {
		metrics.EngineAvailable.Set(0)
		g.logger.Error("Search engine connection lost, search disabled until restart",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

// call runs fn when Connected and translates its error.
func (g *Engine) call(op string, fn func() error) error {
	if !g.Available() {
		metrics.EngineRequestsTotal.WithLabelValues(op, "unavailable").Inc()
		return domain.NewSearchError(domain.ErrSearchUnavailable, unavailableReason)
	}

	start := time.Now()
	err := fn()
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if errors.Is(err, engine.ErrConnection) && !isTimeout(err) {
		g.markUnavailable(op, err)
	}
	translated := Translate(err)
	metrics.EngineRequestsTotal.WithLabelValues(op, outcome(translated)).Inc()
	if translated != nil {
		g.logger.Debug("Search engine call failed",
			zap.String("op", op),
			zap.Error(err),
		)
	}
	return translated
}

// Translate maps a driver error to a domain search error. Errors that are
// already search failures pass through.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsSearchFailure(err) {
		return err
	}
	if isTimeout(err) || errors.Is(err, engine.ErrConnection) {
		return domain.NewSearchError(domain.ErrSearchUnavailable, unavailableReason)
	}

	var ee *engine.Error
	if !errors.As(err, &ee) {
		return domain.NewSearchError(domain.ErrSearch, err.Error())
	}
	switch {
	case ee.Type == engine.TypeIndexNotFound || ee.Status == 404:
		return domain.NewSearchError(domain.ErrIndexNotFound, ee.Reason)
	case isParseFailure(ee):
		return domain.NewSearchError(domain.ErrMalformedQuery, ee.Reason)
	default:
		return domain.NewSearchError(domain.ErrSearch, ee.Error())
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isParseFailure(ee *engine.Error) bool {
	for _, sig := range parseSignatures {
		if strings.Contains(ee.Type, sig) || strings.Contains(ee.Reason, sig) {
			return true
		}
	}
	return false
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrSearchUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrIndexNotFound):
		return "index_not_found"
	case errors.Is(err, domain.ErrMalformedQuery):
		return "malformed_query"
	default:
		return "error"
	}
}

// Ping checks the engine. A connection failure marks it Unavailable.
func (g *Engine) Ping(ctx context.Context) error {
	return g.call(engine.OpPing, func() error { return g.inner.Ping(ctx) })
}

// CreateIndex creates the index.
func (g *Engine) CreateIndex(ctx context.Context, def *engine.IndexDefinition) error {
	return g.call(engine.OpCreateIndex, func() error { return g.inner.CreateIndex(ctx, def) })
}

// DeleteIndex deletes the index.
func (g *Engine) DeleteIndex(ctx context.Context, name string) error {
	return g.call(engine.OpDeleteIndex, func() error { return g.inner.DeleteIndex(ctx, name) })
}

// IndexExists reports whether the index exists.
func (g *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	var ok bool
	err := g.call(engine.OpIndexExists, func() error {
		var err error
		ok, err = g.inner.IndexExists(ctx, name)
		return err
	})
	return ok, err
}

// Index writes a document.
func (g *Engine) Index(ctx context.Context, index, id string, source []byte) error {
	return g.call(engine.OpIndex, func() error { return g.inner.Index(ctx, index, id, source) })
}

// Delete removes a document.
func (g *Engine) Delete(ctx context.Context, index, id string) error {
	return g.call(engine.OpDelete, func() error { return g.inner.Delete(ctx, index, id) })
}

// BulkUpdate applies partial updates. Per-item failures stay in the result.
func (g *Engine) BulkUpdate(
	ctx context.Context, index string, items []engine.PartialUpdate,
) (*engine.BulkResult, error) {
	var res *engine.BulkResult
	err := g.call(engine.OpBulk, func() error {
		var err error
		res, err = g.inner.BulkUpdate(ctx, index, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Search runs a search request.
func (g *Engine) Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResponse, error) {
	var res *engine.SearchResponse
	err := g.call(engine.OpSearch, func() error {
		var err error
		res, err = g.inner.Search(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Close releases the inner engine.
func (g *Engine) Close() error {
	if g.inner == nil {
		return nil
	}
	return g.inner.Close()
}
