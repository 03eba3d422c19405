// Package entity loads nodes and users from the source-of-truth store.
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/osfio/osfsearch/internal/db"
	"github.com/osfio/osfsearch/internal/domain"
	domentity "github.com/osfio/osfsearch/internal/domain/entity"
)

// DefaultPrefix namespaces entity keys.
const DefaultPrefix = "osf:"

// rootPath selects the whole document as a plain object.
const rootPath = "."

// store is the consumer interface for entities (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo reads and writes entities as JSON documents.
type Repo struct {
	store  store
	prefix string
}

// New creates an entity repository. An empty prefix uses DefaultPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) nodeKey(id string) string { return r.prefix + "node:" + id }
func (r *Repo) userKey(id string) string { return r.prefix + "user:" + id }

// SaveNode stores a node, replacing any previous version.
func (r *Repo) SaveNode(ctx context.Context, n *domentity.Node) error {
	if !domentity.ValidID(n.ID) {
		return fmt.Errorf("node id %q: %w", n.ID, domain.ErrInvalidQuery)
	}
	data, err := json.Marshal(nodeToDTO(n))
	if err != nil {
		return fmt.Errorf("marshal node: %w", err)
	}
	if err := r.store.JSONSet(ctx, r.nodeKey(n.ID), "$", data); err != nil {
		return fmt.Errorf("json.set node %s: %w", n.ID, err)
	}
	return nil
}

// GetNode loads a node. Returns domain.ErrNotFound when absent.
func (r *Repo) GetNode(ctx context.Context, id string) (*domentity.Node, error) {
	raw, err := r.store.JSONGet(ctx, r.nodeKey(id), rootPath)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("json.get node %s: %w", id, err)
	}
	var d nodeDTO
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode node %s: %w", id, err)
	}
	return d.toEntity(), nil
}

// GetNodes loads many nodes in one round trip. Missing ids are absent from the map.
func (r *Repo) GetNodes(ctx context.Context, ids []string) (map[string]*domentity.Node, error) {
	raws, err := r.mget(ctx, ids, r.nodeKey)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domentity.Node, len(ids))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var d nodeDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode node %s: %w", ids[i], err)
		}
		out[ids[i]] = d.toEntity()
	}
	return out, nil
}

// DeleteNode removes a node from the store.
func (r *Repo) DeleteNode(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.nodeKey(id)); err != nil {
		return fmt.Errorf("del node %s: %w", id, err)
	}
	return nil
}

// SaveUser stores a user, replacing any previous version.
func (r *Repo) SaveUser(ctx context.Context, u *domentity.User) error {
	if !domentity.ValidID(u.ID) {
		return fmt.Errorf("user id %q: %w", u.ID, domain.ErrInvalidQuery)
	}
	data, err := json.Marshal(userToDTO(u))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := r.store.JSONSet(ctx, r.userKey(u.ID), "$", data); err != nil {
		return fmt.Errorf("json.set user %s: %w", u.ID, err)
	}
	return nil
}

// GetUser loads a user. Returns domain.ErrNotFound when absent.
func (r *Repo) GetUser(ctx context.Context, id string) (*domentity.User, error) {
	raw, err := r.store.JSONGet(ctx, r.userKey(id), rootPath)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("json.get user %s: %w", id, err)
	}
	var d userDTO
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return d.toEntity(), nil
}

// GetUsers loads many users in one round trip. Missing ids are absent from the map.
func (r *Repo) GetUsers(ctx context.Context, ids []string) (map[string]*domentity.User, error) {
	raws, err := r.mget(ctx, ids, r.userKey)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domentity.User, len(ids))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var d userDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", ids[i], err)
		}
		out[ids[i]] = d.toEntity()
	}
	return out, nil
}

// NodeIDs lists every stored node id.
func (r *Repo) NodeIDs(ctx context.Context) ([]string, error) {
	return r.scanIDs(ctx, r.nodeKey(""))
}

// UserIDs lists every stored user id.
func (r *Repo) UserIDs(ctx context.Context) ([]string, error) {
	return r.scanIDs(ctx, r.userKey(""))
}

func (r *Repo) mget(ctx context.Context, ids []string, key func(string) string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	raws, err := r.store.JSONMGet(ctx, keys, rootPath)
	if err != nil {
		return nil, fmt.Errorf("json.mget: %w", err)
	}
	return raws, nil
}

func (r *Repo) scanIDs(ctx context.Context, prefix string) ([]string, error) {
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id := strings.TrimPrefix(k, prefix); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
