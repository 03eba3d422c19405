package entity

import (
	"context"
	"path"
	"sort"

	"github.com/osfio/osfsearch/internal/db"
)

// fakeStore keeps JSON documents in a map. Paths are ignored.
type fakeStore struct {
	docs    map[string][]byte
	mgetErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string][]byte{}}
}

func (f *fakeStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	f.docs[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	d, ok := f.docs[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return d, nil
}

func (f *fakeStore) JSONMGet(_ context.Context, keys []string, _ string) ([][]byte, error) {
	if f.mgetErr != nil {
		return nil, f.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = f.docs[k]
	}
	return out, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	delete(f.docs, key)
	return nil
}

func (f *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for k := range f.docs {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
