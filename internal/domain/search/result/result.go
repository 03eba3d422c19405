package result

import (
	"time"

	"github.com/osfio/osfsearch/internal/domain/document"
)

// PrivateParentTitle replaces the title of a parent that is not public.
const PrivateParentTitle = "-- private project --"

// Record is one formatted search hit.
type Record interface {
	RecordID() string
	RecordType() document.Type
}

// Node is a formatted project, component or registration hit.
type Node struct {
	ID                string                 `json:"id"`
	Contributors      []document.Contributor `json:"contributors"`
	WikiLink          string                 `json:"wiki_link"`
	Title             string                 `json:"title"`
	URL               string                 `json:"url"`
	IsComponent       bool                   `json:"is_component"`
	ParentID          *string                `json:"parent_id"`
	ParentTitle       *string                `json:"parent_title"`
	ParentURL         *string                `json:"parent_url"`
	Tags              []string               `json:"tags"`
	IsRegistration    *bool                  `json:"is_registration"`
	IsRetracted       bool                   `json:"is_retracted"`
	PendingRetraction bool                   `json:"pending_retraction"`
	EmbargoEndDate    *string                `json:"embargo_end_date"`
	PendingEmbargo    bool                   `json:"pending_embargo"`
	Description       *string                `json:"description"`
	Category          document.Type          `json:"category"`
	DateCreated       time.Time              `json:"date_created"`
	DateRegistered    *time.Time             `json:"date_registered"`
}

// RecordID implements Record.
func (n *Node) RecordID() string { return n.ID }

// RecordType implements Record.
func (n *Node) RecordType() document.Type { return n.Category }

// User is a formatted user hit: the stored document plus its profile link.
type User struct {
	document.User
	URL string `json:"url"`
}

// RecordID implements Record.
func (u *User) RecordID() string { return u.ID }

// RecordType implements Record.
func (u *User) RecordType() document.Type { return document.TypeUser }

// TagBucket is one tag-cloud entry.
type TagBucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}

// Set is the outcome of a generic search.
type Set struct {
	Results     []Record          `json:"results"`
	Counts      map[string]int    `json:"counts"`
	Tags        []TagBucket       `json:"tags"`
	TypeAliases map[string]string `json:"typeAliases"`
}

// Contributor is one contributor-autocomplete candidate.
type Contributor struct {
	Fullname          string  `json:"fullname"`
	ID                string  `json:"id"`
	Employment        *string `json:"employment"`
	Education         *string `json:"education"`
	NProjectsInCommon int     `json:"n_projects_in_common"`
	GravatarURL       string  `json:"gravatar_url"`
	ProfileURL        string  `json:"profile_url"`
	Registered        bool    `json:"registered"`
	Active            bool    `json:"active"`
}

// ContributorPage is one page of contributor candidates.
type ContributorPage struct {
	Users []Contributor `json:"users"`
	Total int           `json:"total"`
	Pages int           `json:"pages"`
	Page  int           `json:"page"`
}
