// Package index keeps the search index in step with node and user changes.
//
// Every write is a single fail-fast engine call. Callers decide whether a
// failure matters; entity save hooks treat it as non-fatal.
package index

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/entity"
	"github.com/osfio/osfsearch/internal/engine"
	"github.com/osfio/osfsearch/internal/logger"
	"github.com/osfio/osfsearch/internal/metrics"
)

// Metric op labels.
const (
	opUpsert       = "upsert"
	opDelete       = "delete"
	opContributors = "bulk_contributors"
)

// Service maps entities and writes the result to the index.
type Service struct {
	index Index
}

// New creates an index service.
func New(idx Index) *Service {
	return &Service{index: idx}
}

// UpdateNode indexes a node, or removes it when it is no longer public.
// Orphaned components are skipped without error.
func (s *Service) UpdateNode(ctx context.Context, n *entity.Node) error {
	ins, err := document.MapNode(n)
	if err != nil {
		if errors.Is(err, domain.ErrOrphanedComponent) {
			logger.FromContext(ctx).Warn("Skipping orphaned component", zap.String("node_id", n.ID))
			metrics.IndexWritesTotal.WithLabelValues(opUpsert, "skipped").Inc()
			return nil
		}
		return fmt.Errorf("map node: %w", err)
	}
	return s.apply(ctx, ins)
}

// UpdateUser indexes a user, or removes an inactive one.
func (s *Service) UpdateUser(ctx context.Context, u *entity.User) error {
	ins, err := document.MapUser(u)
	if err != nil {
		return fmt.Errorf("map user: %w", err)
	}
	return s.apply(ctx, ins)
}

// DeleteNode removes a node's document.
func (s *Service) DeleteNode(ctx context.Context, n *entity.Node) error {
	return s.DeleteDoc(ctx, n.ID, document.TypeOf(n.DocType()))
}

// DeleteDoc removes a document. An absent document is not an error.
func (s *Service) DeleteDoc(ctx context.Context, id string, t document.Type) error {
	return s.apply(ctx, document.Delete(id, t))
}

func (s *Service) apply(ctx context.Context, ins document.Instruction) error {
	op := opUpsert
	if ins.Op == document.OpDelete {
		op = opDelete
	}
	if err := s.index.Apply(ctx, ins); err != nil {
		metrics.IndexWritesTotal.WithLabelValues(op, "error").Inc()
		return err
	}
	metrics.IndexWritesTotal.WithLabelValues(op, "ok").Inc()
	return nil
}

// BulkUpdateContributors rewrites the contributor lists of many nodes in one
// request. Nodes missing from the index are ignored; any other per-node
// failure is reported in the returned error after the whole batch ran.
func (s *Service) BulkUpdateContributors(ctx context.Context, nodes []*entity.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	patches := make([]document.ContributorsPatch, 0, len(nodes))
	for _, n := range nodes {
		patches = append(patches, document.MapContributors(n))
	}

	res, err := s.index.UpdateContributors(ctx, patches)
	if err != nil {
		metrics.IndexWritesTotal.WithLabelValues(opContributors, "error").Add(float64(len(patches)))
		return err
	}

	var failed []engine.BulkItem
	for _, it := range res.Items {
		switch {
		case !it.Failed():
			metrics.IndexWritesTotal.WithLabelValues(opContributors, "ok").Inc()
		case it.DocumentMissing():
			metrics.IndexWritesTotal.WithLabelValues(opContributors, "skipped").Inc()
			logger.FromContext(ctx).Debug("Contributor update for unindexed node", zap.String("node_id", it.ID))
		default:
			metrics.IndexWritesTotal.WithLabelValues(opContributors, "error").Inc()
			failed = append(failed, it)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("bulk update contributors: %d of %d failed, first %s: [%d] %s: %s",
			len(failed), len(patches), failed[0].ID, failed[0].Status, failed[0].Type, failed[0].Reason)
	}
	return nil
}

// CreateIndex creates the configured index with its mapping.
func (s *Service) CreateIndex(ctx context.Context) error {
	return s.index.CreateIndex(ctx)
}

// DeleteIndex deletes the named index. A missing index is not an error.
func (s *Service) DeleteIndex(ctx context.Context, name string) error {
	return s.index.DeleteIndex(ctx, name)
}

// DeleteAll deletes the configured index.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.index.DeleteIndex(ctx, s.index.Name())
}

// Reset deletes and recreates the configured index.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.DeleteAll(ctx); err != nil {
		return err
	}
	return s.CreateIndex(ctx)
}

// IndexName returns the configured index name.
func (s *Service) IndexName() string {
	return s.index.Name()
}
