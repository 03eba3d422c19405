// Package searchindex applies index instructions to the search engine and
// runs search bodies against the configured index.
package searchindex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/engine"
)

// Repo writes to and searches one index.
type Repo struct {
	eng   engine.Engine
	index string
}

// New creates a search index repository. An empty name uses DefaultIndex.
func New(eng engine.Engine, index string) *Repo {
	if index == "" {
		index = DefaultIndex
	}
	return &Repo{eng: eng, index: index}
}

// Name returns the index name.
func (r *Repo) Name() string { return r.index }

// Sortable reports whether hits can be ordered by field.
func (r *Repo) Sortable(field string) bool { return Sortable(field) }

// CreateIndex creates the index with its mapping. An existing index is kept.
func (r *Repo) CreateIndex(ctx context.Context) error {
	if err := r.eng.CreateIndex(ctx, Definition(r.index)); err != nil {
		return fmt.Errorf("create index %s: %w", r.index, err)
	}
	return nil
}

// DeleteIndex deletes the named index. A missing index is not an error.
func (r *Repo) DeleteIndex(ctx context.Context, name string) error {
	if err := r.eng.DeleteIndex(ctx, name); err != nil {
		return fmt.Errorf("delete index %s: %w", name, err)
	}
	return nil
}

// Apply writes one instruction.
func (r *Repo) Apply(ctx context.Context, ins document.Instruction) error {
	switch ins.Op {
	case document.OpUpsert:
		src, err := json.Marshal(ins.Doc)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", ins.Type, ins.ID, err)
		}
		if err := r.eng.Index(ctx, r.index, ins.ID, src); err != nil {
			return fmt.Errorf("index %s %s: %w", ins.Type, ins.ID, err)
		}
	case document.OpDelete:
		if err := r.eng.Delete(ctx, r.index, ins.ID); err != nil {
			return fmt.Errorf("delete %s %s: %w", ins.Type, ins.ID, err)
		}
	default:
		return fmt.Errorf("unknown instruction op %d for %s", ins.Op, ins.ID)
	}
	return nil
}

type contributorsDoc struct {
	Contributors []document.Contributor `json:"contributors"`
}

// UpdateContributors replaces the contributors field of many documents in
// one bulk request. Per-document failures are returned in the result.
func (r *Repo) UpdateContributors(
	ctx context.Context, patches []document.ContributorsPatch,
) (*engine.BulkResult, error) {
	items := make([]engine.PartialUpdate, 0, len(patches))
	for _, p := range patches {
		doc, err := json.Marshal(contributorsDoc{Contributors: p.Contributors})
		if err != nil {
			return nil, fmt.Errorf("encode contributors %s: %w", p.ID, err)
		}
		items = append(items, engine.PartialUpdate{ID: p.ID, Doc: doc})
	}
	res, err := r.eng.BulkUpdate(ctx, r.index, items)
	if err != nil {
		return nil, fmt.Errorf("bulk update contributors: %w", err)
	}
	return res, nil
}

// Search runs a body against index, or the default index when empty.
func (r *Repo) Search(
	ctx context.Context, index string, body query.Body, countOnly bool,
) (*engine.SearchResponse, error) {
	if index == "" {
		index = r.index
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}
	res, err := r.eng.Search(ctx, &engine.SearchRequest{Index: index, Body: raw, CountOnly: countOnly})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	return res, nil
}
