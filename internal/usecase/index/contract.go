package index

import (
	"context"

	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/engine"
)

// Index is the write side of the search index.
type Index interface {
	Name() string
	CreateIndex(ctx context.Context) error
	DeleteIndex(ctx context.Context, name string) error
	Apply(ctx context.Context, ins document.Instruction) error
	UpdateContributors(ctx context.Context, patches []document.ContributorsPatch) (*engine.BulkResult, error)
}
