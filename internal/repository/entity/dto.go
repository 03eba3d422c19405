package entity

import (
	"time"

	domentity "github.com/osfio/osfsearch/internal/domain/entity"
)

// nodeDTO is the stored JSON shape of a node.
type nodeDTO struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Category          string            `json:"category"`
	Tags              []string          `json:"tags,omitempty"`
	IsPublic          bool              `json:"is_public"`
	IsDeleted         bool              `json:"is_deleted"`
	IsArchiving       bool              `json:"archiving"`
	IsRegistration    bool              `json:"is_registration"`
	IsRetracted       bool              `json:"is_retracted"`
	PendingRetraction bool              `json:"pending_retraction"`
	PendingEmbargo    bool              `json:"pending_embargo"`
	EmbargoEndDate    *time.Time        `json:"embargo_end_date,omitempty"`
	RegisteredDate    *time.Time        `json:"registered_date,omitempty"`
	DateCreated       time.Time         `json:"date_created"`
	ParentID          string            `json:"parent_id,omitempty"`
	Contributors      []contributorDTO  `json:"contributors,omitempty"`
	WikiPages         map[string]string `json:"wiki_pages,omitempty"`
}

type contributorDTO struct {
	ID         string `json:"id"`
	Fullname   string `json:"fullname"`
	ProfileURL string `json:"url"`
	IsActive   bool   `json:"is_active"`
	Visible    bool   `json:"visible"`
}

// userDTO is the stored JSON shape of a user.
type userDTO struct {
	ID           string            `json:"id"`
	Fullname     string            `json:"fullname"`
	GivenName    string            `json:"given_name,omitempty"`
	MiddleNames  string            `json:"middle_names,omitempty"`
	FamilyName   string            `json:"family_name,omitempty"`
	Suffix       string            `json:"suffix,omitempty"`
	Username     string            `json:"username,omitempty"`
	IsActive     bool              `json:"is_active"`
	IsRegistered bool              `json:"is_registered"`
	Jobs         []jobDTO          `json:"jobs,omitempty"`
	Schools      []schoolDTO       `json:"schools,omitempty"`
	Social       map[string]string `json:"social,omitempty"`
	NodeIDs      []string          `json:"node_ids,omitempty"`
}

type jobDTO struct {
	Institution string `json:"institution"`
	Title       string `json:"title,omitempty"`
}

type schoolDTO struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
}

func nodeToDTO(n *domentity.Node) nodeDTO {
	d := nodeDTO{
		ID:                n.ID,
		Title:             n.Title,
		Description:       n.Description,
		Category:          n.Category,
		Tags:              n.Tags,
		IsPublic:          n.IsPublic,
		IsDeleted:         n.IsDeleted,
		IsArchiving:       n.IsArchiving,
		IsRegistration:    n.IsRegistration,
		IsRetracted:       n.IsRetracted,
		PendingRetraction: n.PendingRetraction,
		PendingEmbargo:    n.PendingEmbargo,
		EmbargoEndDate:    n.EmbargoEndDate,
		RegisteredDate:    n.RegisteredDate,
		DateCreated:       n.DateCreated,
		ParentID:          n.ParentID,
		WikiPages:         n.WikiPages,
	}
	for _, c := range n.Contributors {
		d.Contributors = append(d.Contributors, contributorDTO(c))
	}
	return d
}

func (d *nodeDTO) toEntity() *domentity.Node {
	n := &domentity.Node{
		ID:                d.ID,
		Title:             d.Title,
		Description:       d.Description,
		Category:          d.Category,
		Tags:              d.Tags,
		IsPublic:          d.IsPublic,
		IsDeleted:         d.IsDeleted,
		IsArchiving:       d.IsArchiving,
		IsRegistration:    d.IsRegistration,
		IsRetracted:       d.IsRetracted,
		PendingRetraction: d.PendingRetraction,
		PendingEmbargo:    d.PendingEmbargo,
		EmbargoEndDate:    d.EmbargoEndDate,
		RegisteredDate:    d.RegisteredDate,
		DateCreated:       d.DateCreated,
		ParentID:          d.ParentID,
		WikiPages:         d.WikiPages,
	}
	for _, c := range d.Contributors {
		n.Contributors = append(n.Contributors, domentity.Contributor(c))
	}
	return n
}

func userToDTO(u *domentity.User) userDTO {
	d := userDTO{
		ID:           u.ID,
		Fullname:     u.Fullname,
		GivenName:    u.GivenName,
		MiddleNames:  u.MiddleNames,
		FamilyName:   u.FamilyName,
		Suffix:       u.Suffix,
		Username:     u.Username,
		IsActive:     u.IsActive,
		IsRegistered: u.IsRegistered,
		Social:       u.Social,
		NodeIDs:      u.NodeIDs,
	}
	for _, j := range u.Jobs {
		d.Jobs = append(d.Jobs, jobDTO(j))
	}
	for _, s := range u.Schools {
		d.Schools = append(d.Schools, schoolDTO(s))
	}
	return d
}

func (d *userDTO) toEntity() *domentity.User {
	u := &domentity.User{
		ID:           d.ID,
		Fullname:     d.Fullname,
		GivenName:    d.GivenName,
		MiddleNames:  d.MiddleNames,
		FamilyName:   d.FamilyName,
		Suffix:       d.Suffix,
		Username:     d.Username,
		IsActive:     d.IsActive,
		IsRegistered: d.IsRegistered,
		Social:       d.Social,
		NodeIDs:      d.NodeIDs,
	}
	for _, j := range d.Jobs {
		u.Jobs = append(u.Jobs, domentity.Job(j))
	}
	for _, s := range d.Schools {
		u.Schools = append(u.Schools, domentity.School(s))
	}
	return u
}
