package hook

import (
	"context"

	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/entity"
)

// Entities loads nodes and users from the source-of-truth store.
type Entities interface {
	GetNode(ctx context.Context, id string) (*entity.Node, error)
	GetNodes(ctx context.Context, ids []string) (map[string]*entity.Node, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
}

// Indexer writes entities to the search index.
type Indexer interface {
	UpdateNode(ctx context.Context, n *entity.Node) error
	UpdateUser(ctx context.Context, u *entity.User) error
	DeleteNode(ctx context.Context, n *entity.Node) error
	DeleteDoc(ctx context.Context, id string, t document.Type) error
	BulkUpdateContributors(ctx context.Context, nodes []*entity.Node) error
}
