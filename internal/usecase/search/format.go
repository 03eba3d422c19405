package search

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/sanitize"
	"github.com/osfio/osfsearch/internal/domain/search/result"
	"github.com/osfio/osfsearch/internal/engine"
	"github.com/osfio/osfsearch/internal/logger"
	"github.com/osfio/osfsearch/internal/metrics"
)

// UserProfilePrefix prefixes the id of a user hit to form its URL.
const UserProfilePrefix = "/profile/"

// parentInfo is the view of a parent node a child hit may show.
type parentInfo struct {
	id             *string
	title          string
	url            string
	isRegistration *bool
}

// formatter shapes the hits of one result page. Parents are loaded live
// from the store, at most once per page.
type formatter struct {
	entities Entities
	parents  map[string]*parentInfo
}

func newFormatter(entities Entities) *formatter {
	return &formatter{entities: entities, parents: make(map[string]*parentInfo)}
}

func (f *formatter) format(ctx context.Context, hits []engine.Hit) ([]result.Record, error) {
	out := make([]result.Record, 0, len(hits))
	for _, h := range hits {
		doc, err := document.Decode(h.Source)
		if err != nil {
			return nil, decodeErr(h.ID, err)
		}
		if u, ok := doc.User(); ok {
			out = append(out, &result.User{User: u, URL: UserProfilePrefix + u.ID})
			continue
		}
		n, ok := doc.Node()
		if !ok || !n.Category.ProjectLike() {
			logger.FromContext(ctx).Warn("Skipping hit of unknown type",
				zap.String("id", h.ID), zap.String("category", string(doc.Type())))
			continue
		}
		out = append(out, f.node(ctx, n))
	}
	return out, nil
}

func (f *formatter) node(ctx context.Context, n document.Node) *result.Node {
	rec := &result.Node{
		ID:                n.ID,
		Contributors:      n.Contributors,
		WikiLink:          n.URL + "wiki/",
		Title:             sanitize.SafeUnescapeHTML(n.Title),
		URL:               n.URL,
		Tags:              n.Tags,
		IsRetracted:       n.IsRetracted,
		PendingRetraction: n.PendingRetraction,
		EmbargoEndDate:    n.EmbargoEndDate,
		PendingEmbargo:    n.PendingEmbargo,
		Category:          n.Category,
		DateCreated:       n.DateCreated,
		DateRegistered:    n.RegisteredDate,
	}
	if rec.Contributors == nil {
		rec.Contributors = []document.Contributor{}
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	var parent *parentInfo
	if n.ParentID != nil && *n.ParentID != "" {
		parent = f.parent(ctx, *n.ParentID)
	}
	if parent == nil {
		isReg, desc := n.IsRegistration, n.Description
		rec.IsRegistration = &isReg
		rec.Description = &desc
		return rec
	}

	title := parent.title
	rec.IsComponent = true
	rec.ParentID = parent.id
	rec.ParentTitle = &title
	rec.ParentURL = &parent.url
	rec.IsRegistration = parent.isRegistration
	return rec
}

// parent resolves a parent by id. A parent missing from the store yields
// nil; a parent that is not public, or cannot be loaded, is redacted.
func (f *formatter) parent(ctx context.Context, id string) *parentInfo {
	if p, ok := f.parents[id]; ok {
		metrics.ParentLookupsTotal.WithLabelValues("cached").Inc()
		return p
	}

	var p *parentInfo
	node, err := f.entities.GetNode(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		metrics.ParentLookupsTotal.WithLabelValues("missing").Inc()
	case err != nil:
		metrics.ParentLookupsTotal.WithLabelValues("error").Inc()
		logger.FromContext(ctx).Error("Parent lookup failed, redacting", zap.String("parent_id", id), zap.Error(err))
		p = redacted()
	case !node.IsPublic:
		metrics.ParentLookupsTotal.WithLabelValues("private").Inc()
		p = redacted()
	default:
		metrics.ParentLookupsTotal.WithLabelValues("public").Inc()
		pid, isReg := node.ID, node.IsRegistration
		p = &parentInfo{
			id:             &pid,
			title:          sanitize.StripHTML(node.Title),
			url:            node.URL(),
			isRegistration: &isReg,
		}
	}
	f.parents[id] = p
	return p
}

func redacted() *parentInfo {
	return &parentInfo{title: result.PrivateParentTitle}
}
