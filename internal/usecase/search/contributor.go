package search

import (
	"context"
	"crypto/md5" //nolint:gosec // gravatar addresses avatars by md5
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/entity"
	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/domain/search/result"
	"github.com/osfio/osfsearch/internal/logger"
)

const gravatarURL = "https://secure.gravatar.com/avatar/%x?d=identicon&size=%d"

// ContributorRequest is a contributor-autocomplete search.
type ContributorRequest struct {
	query.Contributor
	// ExcludeNode adds the contributors of this node to the excluded ids.
	ExcludeNode string
	// CurrentUser is the id of the searching user, if known.
	CurrentUser string
}

// SearchContributor finds active users whose names prefix-match the term.
// Hits are enriched from the live user records; users that no longer load
// or are inactive are dropped from the page.
func (s *Service) SearchContributor(ctx context.Context, req ContributorRequest) (*result.ContributorPage, error) {
	c := req.Contributor
	c.Exclude = append([]string(nil), c.Exclude...)
	if req.ExcludeNode != "" {
		n, err := s.entities.GetNode(ctx, req.ExcludeNode)
		if err != nil {
			return nil, fmt.Errorf("load excluded node: %w", err)
		}
		c.Exclude = append(c.Exclude, n.ContributorIDs()...)
	}

	body, err := query.BuildContributor(c)
	if err != nil {
		return nil, err
	}
	res, err := s.index.Search(ctx, "", body.Hits(), false)
	if err != nil {
		return nil, fmt.Errorf("contributors: %w", err)
	}

	docs := make([]document.User, 0, len(res.Hits))
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		doc, err := document.Decode(h.Source)
		if err != nil {
			return nil, decodeErr(h.ID, err)
		}
		u, ok := doc.User()
		if !ok {
			continue
		}
		docs = append(docs, u)
		ids = append(ids, u.ID)
	}
	live, err := s.entities.GetUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	current, err := s.currentUser(ctx, req.CurrentUser)
	if err != nil {
		return nil, err
	}

	users := make([]result.Contributor, 0, len(docs))
	for _, doc := range docs {
		u, ok := live[doc.ID]
		if !ok {
			logger.FromContext(ctx).Error("Could not load user", zap.String("user_id", doc.ID))
			continue
		}
		if !u.IsActive {
			continue
		}
		cand := result.Contributor{
			Fullname:    doc.User,
			ID:          doc.ID,
			GravatarURL: gravatar(u.Username, s.cfg.GravatarSize),
			ProfileURL:  u.ProfileURL(),
			Registered:  u.IsRegistered,
			Active:      u.IsActive,
		}
		if job, ok := u.CurrentJob(); ok {
			cand.Employment = &job.Institution
		}
		if school, ok := u.CurrentSchool(); ok {
			cand.Education = &school.Institution
		}
		if current != nil {
			cand.NProjectsInCommon = current.NProjectsInCommon(u)
		}
		users = append(users, cand)
	}

	return &result.ContributorPage{
		Users: users,
		Total: res.Total,
		Pages: (res.Total + c.Size - 1) / c.Size,
		Page:  c.Page,
	}, nil
}

func (s *Service) currentUser(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, nil
	}
	u, err := s.entities.GetUser(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	return u, nil
}

func gravatar(email string, size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email)))) //nolint:gosec
	return fmt.Sprintf(gravatarURL, sum, size)
}
