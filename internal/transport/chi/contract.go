package chi

import (
	"context"

	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/domain/search/result"
	healthuc "github.com/osfio/osfsearch/internal/usecase/health"
	hookuc "github.com/osfio/osfsearch/internal/usecase/hook"
	reindexuc "github.com/osfio/osfsearch/internal/usecase/reindex"
	searchuc "github.com/osfio/osfsearch/internal/usecase/search"
)

// Searcher runs generic and contributor searches.
type Searcher interface {
	Query(ctx context.Context, q query.Query) (*result.Set, error)
	Search(ctx context.Context, index string, body query.Body) (*result.Set, error)
	SearchContributor(ctx context.Context, req searchuc.ContributorRequest) (*result.ContributorPage, error)
}

// Hooks reacts to entity changes in the primary store.
type Hooks interface {
	NodeSaved(ctx context.Context, id string) (hookuc.Outcome, error)
	UserSaved(ctx context.Context, id string) (hookuc.Outcome, error)
	NodeDeleted(ctx context.Context, id string) (hookuc.Outcome, error)
	ContributorsChanged(ctx context.Context, nodeIDs []string) (hookuc.Outcome, error)
}

// TaskQueue defers hook work to background workers.
type TaskQueue interface {
	EnqueueNodeSaved(ctx context.Context, id string) (string, error)
	EnqueueUserSaved(ctx context.Context, id string) (string, error)
	EnqueueNodeDeleted(ctx context.Context, id string) (string, error)
	EnqueueContributorsChanged(ctx context.Context, nodeIDs []string) (string, error)
}

// IndexAdmin manages the index lifecycle.
type IndexAdmin interface {
	CreateIndex(ctx context.Context) error
	DeleteIndex(ctx context.Context, name string) error
	Reset(ctx context.Context) error
	IndexName() string
}

// Reindexer rebuilds the index from the primary store.
type Reindexer interface {
	Run(ctx context.Context, opts reindexuc.Options) (*reindexuc.Report, error)
	LastReport(ctx context.Context) (*reindexuc.Report, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
