package document

import (
	"fmt"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/entity"
	"github.com/osfio/osfsearch/internal/domain/sanitize"
)

// EmbargoDateLayout renders embargo end dates, e.g. "Monday, Jan. 02, 2006".
const EmbargoDateLayout = "Monday, Jan. 02, 2006"

// MapNode converts a node into an upsert or delete instruction.
// Components without a parent yield domain.ErrOrphanedComponent.
func MapNode(n *entity.Node) (Instruction, error) {
	typ := TypeOf(n.DocType())

	var parentID *string
	if typ == TypeComponent {
		if n.ParentID == "" {
			return Instruction{}, fmt.Errorf("node %s: %w", n.ID, domain.ErrOrphanedComponent)
		}
		p := n.ParentID
		parentID = &p
	}

	if !n.Indexable() {
		return Delete(n.ID, typ), nil
	}

	title := sanitize.Clean(n.Title)
	doc := Node{
		ID:                n.ID,
		Contributors:      contributors(n, false),
		Title:             title,
		NormalizedTitle:   Normalize(sanitize.StripHTML(n.Title)),
		Category:          typ,
		Public:            n.IsPublic,
		Tags:              tags(n.Tags),
		Description:       sanitize.Clean(n.Description),
		URL:               n.URL(),
		IsRegistration:    n.IsRegistration,
		IsRetracted:       n.IsRetracted,
		PendingRetraction: n.PendingRetraction,
		PendingEmbargo:    n.PendingEmbargo,
		RegisteredDate:    n.RegisteredDate,
		Wikis:             map[string]string{},
		ParentID:          parentID,
		DateCreated:       n.DateCreated,
		Boost:             Boost(n.IsRegistration),
	}
	if n.EmbargoEndDate != nil {
		s := n.EmbargoEndDate.Format(EmbargoDateLayout)
		doc.EmbargoEndDate = &s
	}
	if !n.IsRetracted {
		for name, text := range n.WikiPages {
			doc.Wikis[name] = text
		}
	}

	d, err := NewNode(doc)
	if err != nil {
		return Instruction{}, fmt.Errorf("map node %s: %w", n.ID, err)
	}
	return Upsert(d), nil
}

// MapUser converts a user into an upsert or, for inactive users, a delete instruction.
func MapUser(u *entity.User) (Instruction, error) {
	if !u.IsActive {
		return Delete(u.ID, TypeUser), nil
	}

	names := Names{
		Fullname:    u.Fullname,
		GivenName:   u.GivenName,
		FamilyName:  u.FamilyName,
		MiddleNames: u.MiddleNames,
		Suffix:      u.Suffix,
	}
	doc := User{
		ID:             u.ID,
		User:           u.Fullname,
		NormalizedUser: Normalize(u.Fullname),
		NormalizedNames: Names{
			Fullname:    Normalize(names.Fullname),
			GivenName:   Normalize(names.GivenName),
			FamilyName:  Normalize(names.FamilyName),
			MiddleNames: Normalize(names.MiddleNames),
			Suffix:      Normalize(names.Suffix),
		},
		Names:    names,
		Social:   u.Social,
		Category: TypeUser,
		Boost:    2,
	}
	if job, ok := u.CurrentJob(); ok {
		doc.Job = job.Institution
		doc.JobTitle = job.Title
	}
	if school, ok := u.CurrentSchool(); ok {
		doc.School = school.Institution
		doc.Degree = school.Degree
	}
	if doc.Social == nil {
		doc.Social = map[string]string{}
	}

	d, err := NewUser(doc)
	if err != nil {
		return Instruction{}, fmt.Errorf("map user %s: %w", u.ID, err)
	}
	return Upsert(d), nil
}

// MapContributors builds the partial update used when only the contributor
// list of a node changed. Only visible, active contributors are kept.
func MapContributors(n *entity.Node) ContributorsPatch {
	return ContributorsPatch{
		ID:           n.ID,
		Type:         TypeOf(n.DocType()),
		Contributors: contributors(n, true),
	}
}

// Boost ranks registrations below live projects of equal relevance.
func Boost(isRegistration bool) int {
	if isRegistration {
		return 1
	}
	return 2
}

func contributors(n *entity.Node, activeOnly bool) []Contributor {
	visible := n.VisibleContributors()
	out := make([]Contributor, 0, len(visible))
	for _, c := range visible {
		if activeOnly && !c.IsActive {
			continue
		}
		entry := Contributor{Fullname: c.Fullname}
		if c.IsActive {
			url := c.ProfileURL
			entry.URL = &url
		}
		out = append(out, entry)
	}
	return out
}

func tags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
