package search

import (
	"context"

	"github.com/osfio/osfsearch/internal/domain/entity"
	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/engine"
)

// Index runs search bodies. An empty index name means the configured index.
type Index interface {
	Search(ctx context.Context, index string, body query.Body, countOnly bool) (*engine.SearchResponse, error)
	// Sortable reports whether hits can be ordered by field.
	Sortable(field string) bool
}

// Entities loads live entities for visibility checks and enrichment.
type Entities interface {
	GetNode(ctx context.Context, id string) (*entity.Node, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]*entity.User, error)
}
