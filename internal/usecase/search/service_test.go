package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/entity"
	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/domain/search/result"
	"github.com/osfio/osfsearch/internal/engine"
	"github.com/osfio/osfsearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type call struct {
	index     string
	body      query.Body
	countOnly bool
}

type mockIndex struct {
	hits   []engine.Hit
	total  int
	counts []engine.Bucket
	tags   []engine.Bucket
	err    error
	calls  []call
}

func (m *mockIndex) Search(_ context.Context, index string, body query.Body, countOnly bool) (*engine.SearchResponse, error) {
	m.calls = append(m.calls, call{index: index, body: body, countOnly: countOnly})
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := body.Aggs[query.CountsAgg]; ok {
		return &engine.SearchResponse{Aggregations: map[string][]engine.Bucket{query.CountsAgg: m.counts}}, nil
	}
	if _, ok := body.Aggs[query.TagsAgg]; ok {
		return &engine.SearchResponse{Aggregations: map[string][]engine.Bucket{query.TagsAgg: m.tags}}, nil
	}
	return &engine.SearchResponse{Total: m.total, Hits: m.hits}, nil
}

func (m *mockIndex) Sortable(field string) bool {
	switch field {
	case "date_created", "registered_date", "boost", "category":
		return true
	}
	return false
}

type mockEntities struct {
	nodes     map[string]*entity.Node
	users     map[string]*entity.User
	nodeErr   error
	nodeLoads int
}

func (m *mockEntities) GetNode(_ context.Context, id string) (*entity.Node, error) {
	m.nodeLoads++
	if m.nodeErr != nil {
		return nil, m.nodeErr
	}
	if n, ok := m.nodes[id]; ok {
		return n, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockEntities) GetUser(_ context.Context, id string) (*entity.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockEntities) GetUsers(_ context.Context, ids []string) (map[string]*entity.User, error) {
	out := make(map[string]*entity.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func hit(t *testing.T, v any) engine.Hit {
	t.Helper()
	src, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var head struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(src, &head)
	return engine.Hit{ID: head.ID, Score: 1, Source: src}
}

func strp(s string) *string { return &s }

// --- Tests ---

func TestSearch_ThreeRequestsSharePredicate(t *testing.T) {
	idx := &mockIndex{
		counts: []engine.Bucket{{Key: "project", DocCount: 3}, {Key: "user", DocCount: 2}, {Key: "file", DocCount: 9}},
		tags:   []engine.Bucket{{Key: "bio", DocCount: 2}},
	}
	svc := New(idx, &mockEntities{}, Config{})

	set, err := svc.Query(context.Background(), query.Query{Term: "*", Offset: 20, Size: 10, Type: document.TypeProject})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(idx.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(idx.calls))
	}
	for _, c := range idx.calls[:2] {
		if !c.countOnly || c.body.From != nil || c.body.Size != nil || c.body.Sort != nil {
			t.Errorf("aggregation request carries a window: %+v", c)
		}
	}
	hits := idx.calls[2]
	if from, to := hits.body.Window(); from != 20 || to != 30 {
		t.Errorf("window = [%d, %d), want [20, 30)", from, to)
	}

	wantCounts := map[string]int{"project": 3, "user": 2, "total": 5}
	if len(set.Counts) != len(wantCounts) {
		t.Errorf("counts = %v, want %v", set.Counts, wantCounts)
	}
	for k, v := range wantCounts {
		if set.Counts[k] != v {
			t.Errorf("counts[%s] = %d, want %d", k, set.Counts[k], v)
		}
	}
	if len(set.Tags) != 1 || set.Tags[0].Key != "bio" {
		t.Errorf("tags = %v", set.Tags)
	}
	if set.TypeAliases["registration"] != "Registrations" {
		t.Errorf("typeAliases = %v", set.TypeAliases)
	}
	if set.Results == nil {
		t.Error("results should be an empty slice, not nil")
	}
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", domain.NewSearchError(domain.ErrSearchUnavailable, "down"), domain.ErrSearchUnavailable},
		{"malformed", domain.NewSearchError(domain.ErrMalformedQuery, "parse"), domain.ErrMalformedQuery},
		{"missing index", domain.NewSearchError(domain.ErrIndexNotFound, "gone"), domain.ErrIndexNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockIndex{err: tt.err}, &mockEntities{}, Config{})
			set, err := svc.Query(context.Background(), query.Query{Term: "foo", Size: 10})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if set != nil {
				t.Error("failure must not return a result set")
			}
		})
	}
}

func TestSearch_InvalidWindow(t *testing.T) {
	idx := &mockIndex{}
	svc := New(idx, &mockEntities{}, Config{})
	from := -1
	_, err := svc.Search(context.Background(), "", query.Body{From: &from})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("err = %v, want ErrInvalidQuery", err)
	}
	if len(idx.calls) != 0 {
		t.Error("engine called for an invalid body")
	}
}

func TestFormat_UserAndNode(t *testing.T) {
	idx := &mockIndex{hits: []engine.Hit{
		hit(t, document.User{ID: "u1", User: "Bob", Category: document.TypeUser, Boost: 2}),
		hit(t, document.Node{
			ID: "abc12", Title: "Foo &amp; Bar", URL: "/abc12/", Category: document.TypeProject,
			Description: "desc", IsRegistration: false, Boost: 2,
		}),
	}}
	svc := New(idx, &mockEntities{}, Config{})

	set, err := svc.Query(context.Background(), query.Query{Term: "foo", Size: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(set.Results) != 2 {
		t.Fatalf("results = %d", len(set.Results))
	}
	u, ok := set.Results[0].(*result.User)
	if !ok || u.URL != "/profile/u1" {
		t.Errorf("user record = %+v", set.Results[0])
	}
	n, ok := set.Results[1].(*result.Node)
	if !ok {
		t.Fatalf("node record type %T", set.Results[1])
	}
	if n.Title != "Foo & Bar" {
		t.Errorf("title = %q", n.Title)
	}
	if n.WikiLink != "/abc12/wiki/" {
		t.Errorf("wiki_link = %q", n.WikiLink)
	}
	if n.IsComponent || n.ParentTitle != nil {
		t.Error("top-level node reported as component")
	}
	if n.Description == nil || *n.Description != "desc" {
		t.Errorf("description = %v", n.Description)
	}
	if n.IsRegistration == nil || *n.IsRegistration {
		t.Errorf("is_registration = %v", n.IsRegistration)
	}
}

func TestFormat_ParentVisibility(t *testing.T) {
	ents := &mockEntities{nodes: map[string]*entity.Node{
		"pub01": {ID: "pub01", Title: "Public &amp; Open", Category: entity.CategoryProject, IsPublic: true, IsRegistration: true},
		"prv01": {ID: "prv01", Title: "Secret plans", Category: entity.CategoryProject},
	}}
	child := func(id, parent string) engine.Hit {
		return hit(t, document.Node{
			ID: id, Title: "Child", URL: "/" + id + "/", Category: document.TypeComponent,
			Description: "d", ParentID: strp(parent), Boost: 2,
		})
	}
	idx := &mockIndex{hits: []engine.Hit{
		child("c1", "pub01"), child("c2", "prv01"), child("c3", "prv01"), child("c4", "gone1"),
	}}
	svc := New(idx, ents, Config{})

	set, err := svc.Query(context.Background(), query.Query{Term: "child", Size: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	nodes := make([]*result.Node, 0, len(set.Results))
	for _, r := range set.Results {
		nodes = append(nodes, r.(*result.Node))
	}

	pub := nodes[0]
	if !pub.IsComponent || *pub.ParentTitle != "Public & Open" || *pub.ParentURL != "/pub01/" || *pub.ParentID != "pub01" {
		t.Errorf("public parent = %+v", pub)
	}
	if pub.IsRegistration == nil || !*pub.IsRegistration {
		t.Error("component should inherit the parent's registration flag")
	}
	if pub.Description != nil {
		t.Error("component description should be omitted")
	}

	for _, prv := range nodes[1:3] {
		if *prv.ParentTitle != result.PrivateParentTitle || *prv.ParentURL != "" || prv.ParentID != nil {
			t.Errorf("private parent not redacted: title=%q url=%q id=%v", *prv.ParentTitle, *prv.ParentURL, prv.ParentID)
		}
		if strings.Contains(*prv.ParentTitle, "Secret") {
			t.Error("private title leaked")
		}
		if prv.IsRegistration != nil {
			t.Error("private parent registration flag leaked")
		}
	}

	orphan := nodes[3]
	if orphan.IsComponent || orphan.ParentTitle != nil {
		t.Errorf("missing parent = %+v", orphan)
	}

	if ents.nodeLoads != 3 {
		t.Errorf("parent loads = %d, want 3 (one per distinct parent)", ents.nodeLoads)
	}
}

func TestFormat_ParentLoadErrorRedacts(t *testing.T) {
	ents := &mockEntities{nodeErr: errors.New("store down")}
	idx := &mockIndex{hits: []engine.Hit{hit(t, document.Node{
		ID: "c1", Title: "Child", URL: "/c1/", Category: document.TypeComponent, ParentID: strp("pub01"), Boost: 2,
	})}}
	svc := New(idx, ents, Config{})

	set, err := svc.Query(context.Background(), query.Query{Term: "child", Size: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	n := set.Results[0].(*result.Node)
	if n.ParentTitle == nil || *n.ParentTitle != result.PrivateParentTitle {
		t.Errorf("parent_title = %v", n.ParentTitle)
	}
}

func TestFormat_BadSource(t *testing.T) {
	idx := &mockIndex{hits: []engine.Hit{{ID: "x", Source: []byte("not json")}}}
	svc := New(idx, &mockEntities{}, Config{})
	_, err := svc.Query(context.Background(), query.Query{Term: "x", Size: 10})
	if !errors.Is(err, domain.ErrSearch) {
		t.Errorf("err = %v, want ErrSearch", err)
	}
}

func TestQuery_RejectsUnsortableField(t *testing.T) {
	idx := &mockIndex{}
	svc := New(idx, &mockEntities{}, Config{})

	for _, srt := range []string{"title", "description:asc", "-nope"} {
		_, err := svc.Query(context.Background(), query.Query{Term: "*", Size: 10, Sort: srt})
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("sort %q: error = %v, want ErrInvalidQuery", srt, err)
		}
	}
	if len(idx.calls) != 0 {
		t.Errorf("engine called %d times for invalid sorts", len(idx.calls))
	}

	if _, err := svc.Query(context.Background(), query.Query{Term: "*", Size: 10, Sort: "date_created:asc"}); err != nil {
		t.Fatalf("sortable field rejected: %v", err)
	}
	hits := idx.calls[len(idx.calls)-1].body
	raw, _ := json.Marshal(hits.Sort)
	if string(raw) != `[{"date_created":{"order":"asc"}}]` {
		t.Errorf("sort = %s", raw)
	}
}
