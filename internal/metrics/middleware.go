package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/osfio/osfsearch/internal/domain/document"
)

// Doc-type label values for routes that are not scoped to one type.
const (
	docTypeAll     = "all"     // untyped search
	docTypeNode    = "node"    // node hooks
	docTypeNone    = "none"    // admin, health, metrics
	docTypeInvalid = "invalid" // unknown {type} segment
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "osfsearch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "doc_type", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "osfsearch",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "doc_type", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
}

// Middleware records HTTP request duration and count, labelled by chi
// route pattern and the document type the request targets.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.status)

			// The route context is filled in by the router while serving.
			var pattern, typeParam string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				pattern = rctx.RoutePattern()
				typeParam = rctx.URLParam("type")
			}
			route := normalizePath(pattern)
			docType := docTypeLabel(route, typeParam)

			httpRequestDuration.WithLabelValues(r.Method, route, docType, status).Observe(duration)
			httpRequestsTotal.WithLabelValues(r.Method, route, docType, status).Inc()
		})
	}
}

// normalizePath normalizes paths to prevent high cardinality in metrics labels.
func normalizePath(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}

// docTypeLabel maps a route onto the document type it serves. Unknown
// {type} values collapse into one label.
func docTypeLabel(route, typeParam string) string {
	if typeParam != "" {
		t, err := document.ParseType(typeParam)
		if err != nil {
			return docTypeInvalid
		}
		return string(t)
	}
	switch {
	case route == "/search/users", strings.HasPrefix(route, "/hooks/users/"):
		return string(document.TypeUser)
	case strings.HasPrefix(route, "/hooks/"):
		return docTypeNode
	case route == "/search", strings.HasPrefix(route, "/search/"):
		return docTypeAll
	default:
		return docTypeNone
	}
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
