package hook

import (
	"context"
	"fmt"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/entity"
)

type fakeEntities struct {
	nodes map[string]*entity.Node
	users map[string]*entity.User
	err   error
}

func (f *fakeEntities) GetNode(_ context.Context, id string) (*entity.Node, error) {
	if f.err != nil {
		return nil, f.err
	}
	n, ok := f.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return n, nil
}

func (f *fakeEntities) GetNodes(_ context.Context, ids []string) (map[string]*entity.Node, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*entity.Node)
	for _, id := range ids {
		if n, ok := f.nodes[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (f *fakeEntities) GetUser(_ context.Context, id string) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

type fakeIndexer struct {
	err         error
	updated     []string
	deleted     []string
	deletedType []document.Type
	bulk        [][]string
}

func (f *fakeIndexer) UpdateNode(_ context.Context, n *entity.Node) error {
	f.updated = append(f.updated, n.ID)
	return f.err
}

func (f *fakeIndexer) UpdateUser(_ context.Context, u *entity.User) error {
	f.updated = append(f.updated, u.ID)
	return f.err
}

func (f *fakeIndexer) DeleteNode(_ context.Context, n *entity.Node) error {
	return f.DeleteDoc(context.Background(), n.ID, document.TypeOf(n.DocType()))
}

func (f *fakeIndexer) DeleteDoc(_ context.Context, id string, t document.Type) error {
	f.deleted = append(f.deleted, id)
	f.deletedType = append(f.deletedType, t)
	return f.err
}

func (f *fakeIndexer) BulkUpdateContributors(_ context.Context, nodes []*entity.Node) error {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	f.bulk = append(f.bulk, ids)
	return f.err
}
