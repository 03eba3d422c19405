package bleve

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/osfio/osfsearch/internal/engine"
)

const testIndex = "website"

func testDefinition() *engine.IndexDefinition {
	return engine.NewIndex(testIndex).
		Keyword("id", "category", "tags").
		Text("title", engine.AnalyzerEnglish).
		Text("user", engine.AnalyzerStandard).
		Numeric("boost").
		Bool("public").
		MustBuild()
}

// memEngine returns an in-memory engine with the test index created.
func memEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{InMemory: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	if err := e.CreateIndex(context.Background(), testDefinition()); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	return e
}

func indexDoc(t *testing.T, e *Engine, id string, doc map[string]any) {
	t.Helper()
	src, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := e.Index(context.Background(), testIndex, id, src); err != nil {
		t.Fatalf("Index %s: %v", id, err)
	}
}

func search(t *testing.T, e *Engine, body string) *engine.SearchResponse {
	t.Helper()
	res, err := e.Search(context.Background(), &engine.SearchRequest{Index: testIndex, Body: json.RawMessage(body)})
	if err != nil {
		t.Fatalf("Search %s: %v", body, err)
	}
	return res
}

func hitIDs(res *engine.SearchResponse) []string {
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids
}
