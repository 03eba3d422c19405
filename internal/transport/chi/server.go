// Package chi serves the search, hook and admin HTTP API on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/domain"
	healthuc "github.com/osfio/osfsearch/internal/usecase/health"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeInvalidQuery      = "invalid_query"
	CodeMalformedQuery    = "malformed_query"
	CodeSearchUnavailable = "search_unavailable"
	CodeIndexNotFound     = "index_not_found"
	CodeNotFound          = "not_found"
	CodeSearchError       = "search_error"
	CodeReindexRunning    = "reindex_running"
	CodeInternalError     = "internal_error"
)

const (
	malformedQueryDetail = "Please check our help (the question mark beside the search box) " +
		"for more information on advanced search queries."
	unavailableDetail = "Our search service is currently unavailable, if the issue persists, " +
		"please report it to support@osf.io."
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options tune request handling.
type Options struct {
	// DefaultPageSize applies when a GET search omits size.
	DefaultPageSize int
	// MaxPageSize caps size on GET searches.
	MaxPageSize int
	// ContributorPageSize applies when a contributor search omits size.
	ContributorPageSize int
}

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	hooks         Hooks
	tasks         TaskQueue
	admin         IndexAdmin
	reindex       Reindexer
	health        HealthChecker
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. tasks may be nil, in which case
// hooks run synchronously.
func NewServer(
	search Searcher,
	hooks Hooks,
	tasks TaskQueue,
	admin IndexAdmin,
	reindex Reindexer,
	health HealthChecker,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 10
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 250
	}
	if opts.ContributorPageSize <= 0 {
		opts.ContributorPageSize = 5
	}
	s := &Server{
		search:  search,
		hooks:   hooks,
		tasks:   tasks,
		admin:   admin,
		reindex: reindex,
		health:  health,
		opts:    opts,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		detailHandler(domain.ErrMalformedQuery, http.StatusBadRequest, CodeMalformedQuery,
			"Bad search query", malformedQueryDetail),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		detailHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable, CodeSearchUnavailable,
			"Search unavailable", unavailableDetail),
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrSearch, http.StatusBadGateway, CodeSearchError),
		sentinelHandler(domain.ErrReindexRunning, http.StatusConflict, CodeReindexRunning),
	}
	return s
}

// Mount registers every route on r. Hook and admin routes require a bearer
// token when apiKeys is non-empty.
func (s *Server) Mount(r chi.Router, apiKeys []string) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/search", func(r chi.Router) {
		r.Get("/", s.SearchGet)
		r.Post("/", s.SearchPost)
		r.Get("/users/", s.SearchContributors)
		r.Get("/{type}/", s.SearchGet)
		r.Post("/{type}/", s.SearchPost)
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiKeys))

		r.Route("/hooks", func(r chi.Router) {
			r.Post("/nodes/{id}", s.NodeSaved)
			r.Delete("/nodes/{id}", s.NodeDeleted)
			r.Post("/users/{id}", s.UserSaved)
			r.Post("/contributors", s.ContributorsChanged)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/index", s.CreateIndex)
			r.Delete("/index", s.DeleteIndex)
			r.Post("/index/reset", s.ResetIndex)
			r.Post("/reindex", s.Reindex)
			r.Get("/reindex", s.LastReindex)
		})
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors keep their detail since it only describes the caller's input.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuery) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrIndexNotFound,
		domain.ErrSearch,
		domain.ErrReindexRunning,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// detailHandler matches a sentinel and answers with fixed user-facing texts.
func detailHandler(sentinel error, status int, code, message, detail string) errorHandler {
	return func(w http.ResponseWriter, err error, _ string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSON(w, status, ErrorResponse{Code: code, Message: message, Detail: detail})
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
