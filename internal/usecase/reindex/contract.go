package reindex

import (
	"context"
	"time"

	"github.com/osfio/osfsearch/internal/domain/entity"
)

// Entities enumerates and loads every node and user in the store.
type Entities interface {
	NodeIDs(ctx context.Context) ([]string, error)
	UserIDs(ctx context.Context) ([]string, error)
	GetNodes(ctx context.Context, ids []string) (map[string]*entity.Node, error)
	GetUsers(ctx context.Context, ids []string) (map[string]*entity.User, error)
}

// Indexer writes entities to the search index.
type Indexer interface {
	UpdateNode(ctx context.Context, n *entity.Node) error
	UpdateUser(ctx context.Context, u *entity.User) error
	Reset(ctx context.Context) error
}

// RunState guards runs with a shared lock and keeps the last report.
type RunState interface {
	Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, owner string) error
	SaveReport(ctx context.Context, data []byte) error
	LastReport(ctx context.Context) ([]byte, error)
}
