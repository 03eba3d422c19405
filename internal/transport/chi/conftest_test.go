package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/domain/search/result"
	healthuc "github.com/osfio/osfsearch/internal/usecase/health"
	hookuc "github.com/osfio/osfsearch/internal/usecase/hook"
	reindexuc "github.com/osfio/osfsearch/internal/usecase/reindex"
	searchuc "github.com/osfio/osfsearch/internal/usecase/search"
)

type fakeSearcher struct {
	queries      []query.Query
	bodies       []query.Body
	contributors []searchuc.ContributorRequest
	set          *result.Set
	page         *result.ContributorPage
	err          error
}

func (f *fakeSearcher) Query(_ context.Context, q query.Query) (*result.Set, error) {
	f.queries = append(f.queries, q)
	return f.result()
}

func (f *fakeSearcher) Search(_ context.Context, _ string, body query.Body) (*result.Set, error) {
	f.bodies = append(f.bodies, body)
	return f.result()
}

func (f *fakeSearcher) result() (*result.Set, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.set != nil {
		return f.set, nil
	}
	return &result.Set{Results: []result.Record{}, Counts: map[string]int{"total": 0}, Tags: []result.TagBucket{}}, nil
}

func (f *fakeSearcher) SearchContributor(
	_ context.Context, req searchuc.ContributorRequest,
) (*result.ContributorPage, error) {
	f.contributors = append(f.contributors, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &result.ContributorPage{Users: []result.Contributor{}}, nil
}

type fakeHooks struct {
	calls []string
	out   hookuc.Outcome
	err   error
}

func (f *fakeHooks) record(call string) (hookuc.Outcome, error) {
	f.calls = append(f.calls, call)
	return f.out, f.err
}

func (f *fakeHooks) NodeSaved(_ context.Context, id string) (hookuc.Outcome, error) {
	return f.record("node_saved:" + id)
}

func (f *fakeHooks) UserSaved(_ context.Context, id string) (hookuc.Outcome, error) {
	return f.record("user_saved:" + id)
}

func (f *fakeHooks) NodeDeleted(_ context.Context, id string) (hookuc.Outcome, error) {
	return f.record("node_deleted:" + id)
}

func (f *fakeHooks) ContributorsChanged(_ context.Context, ids []string) (hookuc.Outcome, error) {
	return f.record("contributors:" + strings.Join(ids, ","))
}

type fakeTasks struct {
	enqueued []string
	err      error
}

func (f *fakeTasks) enqueue(task string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.enqueued = append(f.enqueued, task)
	return "task-1", nil
}

func (f *fakeTasks) EnqueueNodeSaved(_ context.Context, id string) (string, error) {
	return f.enqueue("node_saved:" + id)
}

func (f *fakeTasks) EnqueueUserSaved(_ context.Context, id string) (string, error) {
	return f.enqueue("user_saved:" + id)
}

func (f *fakeTasks) EnqueueNodeDeleted(_ context.Context, id string) (string, error) {
	return f.enqueue("node_deleted:" + id)
}

func (f *fakeTasks) EnqueueContributorsChanged(_ context.Context, ids []string) (string, error) {
	return f.enqueue("contributors:" + strings.Join(ids, ","))
}

type fakeAdmin struct {
	created, reset int
	deleted        []string
	err            error
}

func (f *fakeAdmin) CreateIndex(context.Context) error {
	f.created++
	return f.err
}

func (f *fakeAdmin) DeleteIndex(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return f.err
}

func (f *fakeAdmin) Reset(context.Context) error {
	f.reset++
	return f.err
}

func (f *fakeAdmin) IndexName() string { return "website" }

type fakeReindexer struct {
	opts []reindexuc.Options
	last *reindexuc.Report
	err  error
}

func (f *fakeReindexer) Run(_ context.Context, opts reindexuc.Options) (*reindexuc.Report, error) {
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return &reindexuc.Report{RunID: "run-1", Nodes: 3, Users: 2}, nil
}

func (f *fakeReindexer) LastReport(context.Context) (*reindexuc.Report, error) {
	return f.last, f.err
}

type fakeHealth struct {
	report healthuc.Report
}

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type fixture struct {
	search  *fakeSearcher
	hooks   *fakeHooks
	tasks   *fakeTasks
	admin   *fakeAdmin
	reindex *fakeReindexer
	health  *fakeHealth
	router  chi.Router
}

// newFixture mounts a server on fakes. With async set, hooks go through the
// fake task queue.
func newFixture(t *testing.T, async bool, apiKeys ...string) *fixture {
	t.Helper()
	f := &fixture{
		search:  &fakeSearcher{},
		hooks:   &fakeHooks{out: hookuc.Outcome{Indexed: true}},
		tasks:   &fakeTasks{},
		admin:   &fakeAdmin{},
		reindex: &fakeReindexer{},
		health: &fakeHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckOK, "engine": healthuc.CheckOK},
		}},
	}
	var tasks TaskQueue
	if async {
		tasks = f.tasks
	}
	s := NewServer(f.search, f.hooks, tasks, f.admin, f.reindex, f.health,
		Options{DefaultPageSize: 10, MaxPageSize: 250, ContributorPageSize: 5}, zap.NewNop())
	f.router = chi.NewRouter()
	s.Mount(f.router, apiKeys)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}
