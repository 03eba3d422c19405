package elastic

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/osfio/osfsearch/internal/engine"
)

// Compile-time check: Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addrs          []string
	Username       string
	Password       string
	RequestTimeout time.Duration
	HealthTimeout  time.Duration
	RefreshOnWrite bool
}

// Engine implements engine.Engine over the Elasticsearch REST API.
type Engine struct {
	es      *elasticsearch.Client
	http    *http.Transport
	timeout time.Duration
	health  time.Duration
	refresh string
}

// New creates an Elasticsearch client. No request is made until first use.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = cfg.RequestTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.RequestTimeout}).DialContext,
		ResponseHeaderTimeout: cfg.RequestTimeout + cfg.HealthTimeout,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
		// Index writes fail fast; reconciliation is the reindexer's job.
		DisableRetry: true,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	refresh := "false"
	if cfg.RefreshOnWrite {
		refresh = "true"
	}
	return &Engine{es: es, http: transport, timeout: cfg.RequestTimeout, health: cfg.HealthTimeout, refresh: refresh}, nil
}

// Ping waits for the cluster to report at least yellow health.
func (e *Engine) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.health+e.timeout)
	defer cancel()

	h := e.es.Cluster.Health
	res, err := h(
		h.WithContext(ctx),
		h.WithWaitForStatus("yellow"),
		h.WithTimeout(e.health),
	)
	if err != nil {
		return engine.ConnError(engine.OpPing, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError(engine.OpPing, res)
	}
	return nil
}

// Close releases idle connections.
func (e *Engine) Close() error {
	e.http.CloseIdleConnections()
	return nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.timeout)
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}
