package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
	healthuc "github.com/osfio/osfsearch/internal/usecase/health"
	hookuc "github.com/osfio/osfsearch/internal/usecase/hook"
	reindexuc "github.com/osfio/osfsearch/internal/usecase/reindex"
)

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return m
}

func TestSearchGet_BindsParams(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantTerm   string
		wantOffset int
		wantSize   int
		wantSort   string
		wantType   document.Type
	}{
		{"defaults", "/search/", "*", 0, 10, "", ""},
		{"window and sort", "/search/?q=foo&from=20&size=10&sort=date_created", "foo", 20, 10, "date_created", ""},
		{"page", "/search/project/?page=2&size=5", "*", 10, 5, "", document.TypeProject},
		{"size capped", "/search/?size=1000", "*", 0, 250, "", ""},
		{"from wins over page", "/search/user/?from=3&page=9", "*", 3, 10, "", document.TypeUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			rr := f.do("GET", tt.target, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
			}
			if len(f.search.queries) != 1 {
				t.Fatalf("queries: got %d", len(f.search.queries))
			}
			q := f.search.queries[0]
			if q.Term != tt.wantTerm || q.Offset != tt.wantOffset || q.Size != tt.wantSize ||
				q.Sort != tt.wantSort || q.Type != tt.wantType {
				t.Errorf("query: got %+v", q)
			}
		})
	}
}

func TestSearchGet_ResponseShape(t *testing.T) {
	f := newFixture(t, false)
	rr := f.do("GET", "/search/?q=foo", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
	body := decode(t, rr.Body.String())
	for _, key := range []string{"results", "counts", "tags", "typeAliases", "time"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing %q in %v", key, body)
		}
	}
}

func TestSearchGet_BadParam(t *testing.T) {
	f := newFixture(t, false)
	rr := f.do("GET", "/search/?from=abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := decode(t, rr.Body.String())["code"]; got != CodeBadRequest {
		t.Errorf("code: got %v", got)
	}
	if len(f.search.queries) != 0 {
		t.Error("search must not run")
	}
}

func TestSearchPost(t *testing.T) {
	f := newFixture(t, false)
	rr := f.do("POST", "/search/component/", `{"query":{"match_all":{}},"from":0,"size":5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	b := f.search.bodies[0]
	if b.Size == nil || *b.Size != 5 {
		t.Errorf("size: got %v", b.Size)
	}
	if !reflect.DeepEqual(b.Types, []document.Type{document.TypeComponent}) {
		t.Errorf("types: got %v", b.Types)
	}
	if _, ok := b.Query["match_all"]; !ok {
		t.Errorf("query: got %v", b.Query)
	}
}

func TestSearchPost_Rejects(t *testing.T) {
	tests := []struct {
		name, target, body, code string
	}{
		{"invalid json", "/search/", `{"query":`, CodeBadRequest},
		{"unknown type", "/search/bogus/", `{}`, CodeInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			rr := f.do("POST", tt.target, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d", rr.Code)
			}
			if got := decode(t, rr.Body.String())["code"]; got != tt.code {
				t.Errorf("code: got %v, want %s", got, tt.code)
			}
			if len(f.search.bodies) != 0 {
				t.Error("search must not run")
			}
		})
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"malformed", fmt.Errorf("hits: %w", domain.NewSearchError(domain.ErrMalformedQuery, "parse_exception")),
			http.StatusBadRequest, CodeMalformedQuery, "Bad search query"},
		{"invalid", fmt.Errorf("%w: size must be > 0", domain.ErrInvalidQuery),
			http.StatusBadRequest, CodeInvalidQuery, "invalid query: size must be > 0"},
		{"unavailable", domain.NewSearchError(domain.ErrSearchUnavailable, "connection refused"),
			http.StatusServiceUnavailable, CodeSearchUnavailable, "Search unavailable"},
		{"index missing", domain.NewSearchError(domain.ErrIndexNotFound, "no such index [website]"),
			http.StatusNotFound, CodeIndexNotFound, "index not found"},
		{"engine failure", domain.NewSearchError(domain.ErrSearch, "shard failure"),
			http.StatusBadGateway, CodeSearchError, "search error"},
		{"not found", fmt.Errorf("load node: %w", domain.ErrNotFound),
			http.StatusNotFound, CodeNotFound, "not found"},
		{"unknown", errors.New("boom"),
			http.StatusInternalServerError, CodeInternalError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.search.err = tt.err
			rr := f.do("GET", "/search/?q=foo", "")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantCode || resp.Message != tt.wantMsg {
				t.Errorf("got %+v, want %s %q", resp, tt.wantCode, tt.wantMsg)
			}
			if strings.Contains(rr.Body.String(), "connection refused") {
				t.Error("engine reason leaked to client")
			}
		})
	}
}

func TestSearch_UnavailableDetail(t *testing.T) {
	f := newFixture(t, false)
	f.search.err = domain.NewSearchError(domain.ErrSearchUnavailable, "")
	rr := f.do("GET", "/search/", "")
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.Detail, "support@osf.io") {
		t.Errorf("detail: got %q", resp.Detail)
	}
}

func TestSearchContributors(t *testing.T) {
	f := newFixture(t, false)
	req := "/search/users/?query=ali&page=1&size=3&excludeNode=abc12&exclude=u1&exclude=u2"
	rr := f.do("GET", req, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	got := f.search.contributors[0]
	if got.Term != "ali" || got.Page != 1 || got.Size != 3 || got.ExcludeNode != "abc12" {
		t.Errorf("request: got %+v", got)
	}
	if !reflect.DeepEqual(got.Exclude, []string{"u1", "u2"}) {
		t.Errorf("exclude: got %v", got.Exclude)
	}
	body := decode(t, rr.Body.String())
	for _, key := range []string{"users", "total", "pages", "page"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing %q", key)
		}
	}
}

func TestSearchContributors_Defaults(t *testing.T) {
	f := newFixture(t, false)
	r := f.do("GET", "/search/users/", "")
	if r.Code != http.StatusOK {
		t.Fatalf("status: got %d", r.Code)
	}
	got := f.search.contributors[0]
	if got.Size != 5 || got.Page != 0 || got.CurrentUser != "" {
		t.Errorf("request: got %+v", got)
	}
}

func TestSearchContributors_CurrentUserHeader(t *testing.T) {
	f := newFixture(t, false)
	req, _ := http.NewRequest("GET", "/search/users/?query=bo", http.NoBody)
	req.Header.Set(CurrentUserHeader, "u9")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := f.search.contributors[0].CurrentUser; got != "u9" {
		t.Errorf("current user: got %q", got)
	}
}

func TestHooks_Sync(t *testing.T) {
	tests := []struct {
		method, target, body, call string
	}{
		{"POST", "/hooks/nodes/abc12", "", "node_saved:abc12"},
		{"DELETE", "/hooks/nodes/abc12", "", "node_deleted:abc12"},
		{"POST", "/hooks/users/u1", "", "user_saved:u1"},
		{"POST", "/hooks/contributors", `{"node_ids":["n1","n2"]}`, "contributors:n1,n2"},
	}
	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			f := newFixture(t, false)
			rr := f.do(tt.method, tt.target, tt.body)
			if rr.Code != http.StatusAccepted {
				t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
			}
			if !reflect.DeepEqual(f.hooks.calls, []string{tt.call}) {
				t.Errorf("calls: got %v", f.hooks.calls)
			}
			if got := decode(t, rr.Body.String())["indexed"]; got != true {
				t.Errorf("indexed: got %v", got)
			}
		})
	}
}

func TestHooks_IndexFailureStillAccepted(t *testing.T) {
	f := newFixture(t, false)
	f.hooks.out = hookuc.Outcome{Indexed: false}
	rr := f.do("POST", "/hooks/nodes/abc12", "")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := decode(t, rr.Body.String())["indexed"]; got != false {
		t.Errorf("indexed: got %v", got)
	}
}

func TestHooks_MissingEntity(t *testing.T) {
	f := newFixture(t, false)
	f.hooks.err = fmt.Errorf("load node: %w", domain.ErrNotFound)
	rr := f.do("POST", "/hooks/nodes/zzz99", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rr.Code)
	}
}

func TestHooks_ContributorsRequiresIDs(t *testing.T) {
	for _, body := range []string{`{"node_ids":[]}`, `{}`, `nope`} {
		f := newFixture(t, false)
		rr := f.do("POST", "/hooks/contributors", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d", body, rr.Code)
		}
		if len(f.hooks.calls) != 0 {
			t.Errorf("%s: hook must not run", body)
		}
	}
}

func TestHooks_Async(t *testing.T) {
	f := newFixture(t, true)
	rr := f.do("POST", "/hooks/users/u1", "")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp QueuedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Queued || resp.TaskID != "task-1" {
		t.Errorf("response: got %+v", resp)
	}
	if !reflect.DeepEqual(f.tasks.enqueued, []string{"user_saved:u1"}) {
		t.Errorf("enqueued: got %v", f.tasks.enqueued)
	}
	if len(f.hooks.calls) != 0 {
		t.Errorf("hook ran inline: %v", f.hooks.calls)
	}
}

func TestHooks_EnqueueFailure(t *testing.T) {
	f := newFixture(t, true)
	f.tasks.err = errors.New("redis down")
	rr := f.do("DELETE", "/hooks/nodes/abc12", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "redis down") {
		t.Error("internal error leaked")
	}
}

func TestRoutes_Auth(t *testing.T) {
	f := newFixture(t, false, "secret")

	tests := []struct {
		method, target string
		want           int
	}{
		{"GET", "/search/", http.StatusOK},
		{"GET", "/health", http.StatusOK},
		{"POST", "/hooks/nodes/abc12", http.StatusUnauthorized},
		{"POST", "/admin/index", http.StatusUnauthorized},
		{"POST", "/admin/reindex", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		rr := f.do(tt.method, tt.target, "")
		if rr.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.target, rr.Code, tt.want)
		}
	}
	if len(f.hooks.calls) != 0 || f.admin.created != 0 || len(f.reindex.opts) != 0 {
		t.Error("protected handlers ran without a token")
	}
}

func TestAdmin_Index(t *testing.T) {
	f := newFixture(t, false)

	if rr := f.do("POST", "/admin/index", ""); rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d", rr.Code)
	} else if got := decode(t, rr.Body.String())["index"]; got != "website" {
		t.Errorf("create index: got %v", got)
	}
	if rr := f.do("DELETE", "/admin/index", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rr.Code)
	}
	if rr := f.do("DELETE", "/admin/index?name=old", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete named: got %d", rr.Code)
	}
	if rr := f.do("POST", "/admin/index/reset", ""); rr.Code != http.StatusOK {
		t.Fatalf("reset: got %d", rr.Code)
	}

	if f.admin.created != 1 || f.admin.reset != 1 {
		t.Errorf("created %d reset %d", f.admin.created, f.admin.reset)
	}
	if !reflect.DeepEqual(f.admin.deleted, []string{"website", "old"}) {
		t.Errorf("deleted: got %v", f.admin.deleted)
	}
}

func TestAdmin_IndexUnavailable(t *testing.T) {
	f := newFixture(t, false)
	f.admin.err = domain.NewSearchError(domain.ErrSearchUnavailable, "dial tcp")
	if rr := f.do("POST", "/admin/index", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d", rr.Code)
	}
}

func TestAdmin_Reindex(t *testing.T) {
	f := newFixture(t, false)
	rr := f.do("POST", "/admin/reindex?reset=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if len(f.reindex.opts) != 1 || !f.reindex.opts[0].Reset {
		t.Errorf("opts: got %+v", f.reindex.opts)
	}
	body := decode(t, rr.Body.String())
	if body["run_id"] != "run-1" || body["nodes"] != float64(3) {
		t.Errorf("report: got %v", body)
	}
}

func TestAdmin_ReindexRunning(t *testing.T) {
	f := newFixture(t, false)
	f.reindex.err = domain.ErrReindexRunning
	rr := f.do("POST", "/admin/reindex", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := decode(t, rr.Body.String())["code"]; got != CodeReindexRunning {
		t.Errorf("code: got %v", got)
	}
}

func TestAdmin_LastReindex(t *testing.T) {
	f := newFixture(t, false)
	if rr := f.do("GET", "/admin/reindex", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("no run: got %d", rr.Code)
	}
	f.reindex.last = &reindexuc.Report{RunID: "run-0"}
	rr := f.do("GET", "/admin/reindex", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := decode(t, rr.Body.String())["run_id"]; got != "run-0" {
		t.Errorf("run id: got %v", got)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusServiceUnavailable},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture(t, false)
			f.health.report.Status = tt.status
			rr := f.do("GET", "/health", "")
			if rr.Code != tt.want {
				t.Fatalf("got %d, want %d", rr.Code, tt.want)
			}
			body := decode(t, rr.Body.String())
			if body["status"] != string(tt.status) {
				t.Errorf("status: got %v", body["status"])
			}
			checks, _ := body["checks"].(map[string]any)
			if checks["engine"] != "ok" {
				t.Errorf("checks: got %v", body["checks"])
			}
		})
	}
}
