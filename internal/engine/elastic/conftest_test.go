package elastic

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// recordedRequest is one request seen by the fake cluster.
type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   string
}

// fakeCluster is an httptest server speaking just enough of the REST API.
type fakeCluster struct {
	t       *testing.T
	srv     *httptest.Server
	mu      sync.Mutex
	reqs    []recordedRequest
	handler func(r recordedRequest) (int, string)
}

func newFakeCluster(t *testing.T, handler func(r recordedRequest) (int, string)) *fakeCluster {
	t.Helper()
	fc := &fakeCluster{t: t, handler: handler}
	fc.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		q := map[string]string{}
		for k, v := range r.URL.Query() {
			q[k] = v[0]
		}
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: q, Body: string(body)}
		fc.mu.Lock()
		fc.reqs = append(fc.reqs, rec)
		fc.mu.Unlock()

		status, resp := fc.handler(rec)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(fc.srv.Close)
	return fc
}

func (fc *fakeCluster) engine() *Engine {
	fc.t.Helper()
	e, err := New(Config{
		Addrs:          []string{fc.srv.URL},
		RequestTimeout: 2 * time.Second,
		RefreshOnWrite: true,
	})
	if err != nil {
		fc.t.Fatalf("New: %v", err)
	}
	return e
}

func (fc *fakeCluster) last() recordedRequest {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.reqs) == 0 {
		fc.t.Fatal("no requests recorded")
	}
	return fc.reqs[len(fc.reqs)-1]
}

// respond returns a handler answering every request with status and body.
func respond(status int, body string) func(recordedRequest) (int, string) {
	return func(recordedRequest) (int, string) { return status, body }
}
