package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/entity"
	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/engine"
)

func userHit(t *testing.T, id, name string) engine.Hit {
	return hit(t, document.User{ID: id, User: name, Category: document.TypeUser, Boost: 2})
}

func TestSearchContributor(t *testing.T) {
	ents := &mockEntities{
		users: map[string]*entity.User{
			"u2": {
				ID: "u2", Fullname: "Bob Two", Username: " Bob@Example.com ", IsActive: true, IsRegistered: true,
				Jobs: []entity.Job{{Institution: "COS"}}, NodeIDs: []string{"p1", "p2"},
			},
			"u3": {ID: "u3", Fullname: "Bob Merged", IsActive: false},
			"me": {ID: "me", IsActive: true, NodeIDs: []string{"p2", "p3"}},
		},
		nodes: map[string]*entity.Node{
			"p9": {ID: "p9", Category: entity.CategoryProject, Contributors: []entity.Contributor{{ID: "u7"}}},
		},
	}
	idx := &mockIndex{
		total: 12,
		hits:  []engine.Hit{userHit(t, "u2", "Bob Two"), userHit(t, "u3", "Bob Merged"), userHit(t, "u4", "Bob Gone")},
	}
	svc := New(idx, ents, Config{GravatarSize: 40})

	page, err := svc.SearchContributor(context.Background(), ContributorRequest{
		Contributor: query.Contributor{Term: "bob", Page: 1, Size: 5, Exclude: []string{"u1"}},
		ExcludeNode: "p9",
		CurrentUser: "me",
	})
	if err != nil {
		t.Fatalf("SearchContributor: %v", err)
	}

	if len(idx.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(idx.calls))
	}
	body := idx.calls[0].body
	scored := body.Query["bool"].(query.Clause)["must"].([]any)[0].(query.Clause)
	mustNot := scored["function_score"].(query.Clause)["query"].(query.Clause)["bool"].(query.Clause)["must_not"].([]any)
	excluded := mustNot[0].(query.Clause)["ids"].(query.Clause)["values"].([]string)
	if strings.Join(excluded, ",") != "u1,u7" {
		t.Errorf("excluded = %v, want u1,u7", excluded)
	}
	if from, to := body.Window(); from != 5 || to != 10 {
		t.Errorf("window = [%d, %d)", from, to)
	}

	if page.Total != 12 || page.Pages != 3 || page.Page != 1 {
		t.Errorf("page = total %d pages %d page %d", page.Total, page.Pages, page.Page)
	}
	if len(page.Users) != 1 {
		t.Fatalf("users = %+v, want only the active, loadable one", page.Users)
	}
	u := page.Users[0]
	if u.ID != "u2" || u.Fullname != "Bob Two" || u.ProfileURL != "/u2/" || !u.Registered || !u.Active {
		t.Errorf("user = %+v", u)
	}
	if u.Employment == nil || *u.Employment != "COS" || u.Education != nil {
		t.Errorf("employment = %v education = %v", u.Employment, u.Education)
	}
	if u.NProjectsInCommon != 1 {
		t.Errorf("n_projects_in_common = %d, want 1", u.NProjectsInCommon)
	}
	// md5("bob@example.com")
	want := "https://secure.gravatar.com/avatar/4b9bb80620f03eb3719e0a061c14283d?d=identicon&size=40"
	if u.GravatarURL != want {
		t.Errorf("gravatar = %q", u.GravatarURL)
	}
}

func TestSearchContributor_Errors(t *testing.T) {
	svc := New(&mockIndex{}, &mockEntities{}, Config{})
	ctx := context.Background()

	_, err := svc.SearchContributor(ctx, ContributorRequest{Contributor: query.Contributor{Term: "bob", Size: 0}})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("size 0: err = %v", err)
	}
	_, err = svc.SearchContributor(ctx, ContributorRequest{
		Contributor: query.Contributor{Term: "bob", Size: 5},
		ExcludeNode: "nope1",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing exclude node: err = %v", err)
	}

	svc = New(&mockIndex{err: domain.NewSearchError(domain.ErrSearchUnavailable, "down")}, &mockEntities{}, Config{})
	_, err = svc.SearchContributor(ctx, ContributorRequest{Contributor: query.Contributor{Term: "bob", Size: 5}})
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Errorf("err = %v, want ErrSearchUnavailable", err)
	}
}
