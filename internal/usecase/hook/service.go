// Package hook reacts to entity changes reported by the website.
//
// A hook loads the entity live from the store and hands it to the index
// writer. Index failures never fail the hook: they are logged and reported
// as Outcome.Indexed == false, and out-of-band reindexing reconciles them.
package hook

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/entity"
	"github.com/osfio/osfsearch/internal/logger"
)

// Outcome reports whether a hook reached the index. Unavailable is set when
// the write was refused because search is disabled for this process; a
// retry cannot succeed until the process is restarted.
type Outcome struct {
	Indexed     bool `json:"indexed"`
	Unavailable bool `json:"unavailable,omitempty"`
}

// Service handles entity change hooks.
type Service struct {
	entities Entities
	index    Indexer
}

// New creates a hook service.
func New(entities Entities, index Indexer) *Service {
	return &Service{entities: entities, index: index}
}

// NodeSaved re-indexes a node after it was saved.
func (s *Service) NodeSaved(ctx context.Context, id string) (Outcome, error) {
	n, err := s.entities.GetNode(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("load node: %w", err)
	}
	return s.outcome(ctx, "update_node", id, s.index.UpdateNode(ctx, n)), nil
}

// UserSaved re-indexes a user after it was saved.
func (s *Service) UserSaved(ctx context.Context, id string) (Outcome, error) {
	u, err := s.entities.GetUser(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("load user: %w", err)
	}
	return s.outcome(ctx, "update_user", id, s.index.UpdateUser(ctx, u)), nil
}

// NodeDeleted removes a node's document. A node already gone from the store
// is removed by id.
func (s *Service) NodeDeleted(ctx context.Context, id string) (Outcome, error) {
	if !entity.ValidID(id) {
		return Outcome{}, fmt.Errorf("%w: invalid node id %q", domain.ErrInvalidQuery, id)
	}
	n, err := s.entities.GetNode(ctx, id)
	switch {
	case err == nil:
		return s.outcome(ctx, "delete_node", id, s.index.DeleteNode(ctx, n)), nil
	case errors.Is(err, domain.ErrNotFound):
		// Documents are keyed by id alone; the type only labels the write.
		return s.outcome(ctx, "delete_node", id, s.index.DeleteDoc(ctx, id, document.TypeProject)), nil
	default:
		return Outcome{}, fmt.Errorf("load node: %w", err)
	}
}

// ContributorsChanged rewrites the contributor lists of the given nodes in
// one bulk request. Ids missing from the store are skipped; if none is
// found the hook fails with domain.ErrNotFound.
func (s *Service) ContributorsChanged(ctx context.Context, ids []string) (Outcome, error) {
	if len(ids) == 0 {
		return Outcome{}, fmt.Errorf("%w: node_ids is required", domain.ErrInvalidQuery)
	}
	found, err := s.entities.GetNodes(ctx, ids)
	if err != nil {
		return Outcome{}, fmt.Errorf("load nodes: %w", err)
	}
	nodes := make([]*entity.Node, 0, len(found))
	for _, id := range ids {
		n, ok := found[id]
		if !ok {
			logger.FromContext(ctx).Debug("Contributor hook for unknown node", zap.String("node_id", id))
			continue
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		return Outcome{}, fmt.Errorf("nodes %v: %w", ids, domain.ErrNotFound)
	}
	return s.outcome(ctx, "bulk_contributors", fmt.Sprint(len(nodes)), s.index.BulkUpdateContributors(ctx, nodes)), nil
}

func (s *Service) outcome(ctx context.Context, op, subject string, err error) Outcome {
	if err == nil {
		return Outcome{Indexed: true}
	}
	logger.FromContext(ctx).Warn("Index write failed, entity save unaffected",
		zap.String("op", op),
		zap.String("subject", subject),
		zap.Error(err),
	)
	return Outcome{Indexed: false, Unavailable: errors.Is(err, domain.ErrSearchUnavailable)}
}
