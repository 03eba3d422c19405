// Package search answers generic and contributor searches.
package search

import (
	"context"
	"fmt"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/domain/search/result"
	"github.com/osfio/osfsearch/internal/engine"
)

// DefaultGravatarSize is the avatar edge in pixels for contributor candidates.
const DefaultGravatarSize = 40

// Config tunes result shaping.
type Config struct {
	GravatarSize int
}

// Service runs searches and formats their results.
type Service struct {
	index    Index
	entities Entities
	cfg      Config
}

// New creates a search service.
func New(idx Index, entities Entities, cfg Config) *Service {
	if cfg.GravatarSize <= 0 {
		cfg.GravatarSize = DefaultGravatarSize
	}
	return &Service{index: idx, entities: entities, cfg: cfg}
}

// Query builds and runs a free-text search against the configured index.
func (s *Service) Query(ctx context.Context, q query.Query) (*result.Set, error) {
	body, err := query.Build(q)
	if err != nil {
		return nil, err
	}
	if q.Sort != "" {
		// Build has already validated the syntax.
		srt, _ := query.ParseSort(q.Sort)
		if !s.index.Sortable(srt.Field) {
			return nil, fmt.Errorf("%w: cannot sort by %q", domain.ErrInvalidQuery, srt.Field)
		}
	}
	return s.Search(ctx, "", body)
}

// Search runs body against index and returns formatted hits, per-type
// counts and the tag cloud. The three engine requests share one predicate.
func (s *Service) Search(ctx context.Context, index string, body query.Body) (*result.Set, error) {
	if err := body.Validate(); err != nil {
		return nil, err
	}

	tagRes, err := s.index.Search(ctx, index, body.Tags(), true)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	countRes, err := s.index.Search(ctx, index, body.Counts(), true)
	if err != nil {
		return nil, fmt.Errorf("counts: %w", err)
	}
	hitRes, err := s.index.Search(ctx, index, body.Hits(), false)
	if err != nil {
		return nil, fmt.Errorf("hits: %w", err)
	}

	records, err := newFormatter(s.entities).format(ctx, hitRes.Hits)
	if err != nil {
		return nil, err
	}
	return &result.Set{
		Results:     records,
		Counts:      counts(countRes.Aggregations[query.CountsAgg]),
		Tags:        tags(tagRes.Aggregations[query.TagsAgg]),
		TypeAliases: document.Aliases,
	}, nil
}

// counts keeps the buckets of known document types and adds their sum.
func counts(buckets []engine.Bucket) map[string]int {
	out := make(map[string]int, len(buckets)+1)
	total := 0
	for _, b := range buckets {
		if _, ok := document.Aliases[b.Key]; !ok || b.Key == document.TotalKey {
			continue
		}
		out[b.Key] = b.DocCount
		total += b.DocCount
	}
	out[document.TotalKey] = total
	return out
}

func tags(buckets []engine.Bucket) []result.TagBucket {
	out := make([]result.TagBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, result.TagBucket{Key: b.Key, DocCount: b.DocCount})
	}
	return out
}

func decodeErr(id string, err error) error {
	return domain.NewSearchError(domain.ErrSearch, fmt.Sprintf("hit %s: %v", id, err))
}
