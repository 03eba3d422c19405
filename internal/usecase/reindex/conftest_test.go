package reindex

import (
	"context"

	"github.com/osfio/osfsearch/internal/domain/entity"
)

type fakeEntities struct {
	nodes map[string]*entity.Node
	users map[string]*entity.User
	// ghost ids are listed but no longer load.
	ghosts []string
	loads  int
}

func (f *fakeEntities) NodeIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.nodes)+len(f.ghosts))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	return append(ids, f.ghosts...), nil
}

func (f *fakeEntities) UserIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeEntities) GetNodes(_ context.Context, ids []string) (map[string]*entity.Node, error) {
	f.loads++
	out := make(map[string]*entity.Node)
	for _, id := range ids {
		if n, ok := f.nodes[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (f *fakeEntities) GetUsers(_ context.Context, ids []string) (map[string]*entity.User, error) {
	f.loads++
	out := make(map[string]*entity.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeIndexer struct {
	failIDs map[string]error
	written []string
	resets  int
}

func (f *fakeIndexer) UpdateNode(_ context.Context, n *entity.Node) error {
	if err := f.failIDs[n.ID]; err != nil {
		return err
	}
	f.written = append(f.written, n.ID)
	return nil
}

func (f *fakeIndexer) UpdateUser(_ context.Context, u *entity.User) error {
	if err := f.failIDs[u.ID]; err != nil {
		return err
	}
	f.written = append(f.written, u.ID)
	return nil
}

func (f *fakeIndexer) Reset(context.Context) error {
	f.resets++
	return nil
}
