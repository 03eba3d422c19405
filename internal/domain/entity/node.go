package entity

import (
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// CategoryProject is the only node category that is not a component.
const CategoryProject = "project"

// Categories lists the node categories known to the website.
var Categories = map[string]string{
	"analysis":             "Analysis",
	"communication":        "Communication",
	"data":                 "Data",
	"hypothesis":           "Hypothesis",
	"instrumentation":      "Instrumentation",
	"methods and measures": "Methods and Measures",
	"procedure":            "Procedure",
	"project":              "Project",
	"software":             "Software",
	"other":                "Other",
	"":                     "Uncategorized",
}

// Kind classifies a node for indexing purposes.
type Kind string

const (
	// KindProject is a top-level, non-registered node.
	KindProject Kind = "project"
	// KindComponent is a node whose category is anything but project.
	KindComponent Kind = "component"
	// KindRegistration is a frozen snapshot of a project.
	KindRegistration Kind = "registration"
)

// Contributor is a user attached to a node, as seen from that node.
type Contributor struct {
	ID         string
	Fullname   string
	ProfileURL string
	IsActive   bool
	Visible    bool
}

// Node is a project, component or registration as loaded from the store.
type Node struct {
	ID                string
	Title             string
	Description       string
	Category          string
	Tags              []string
	IsPublic          bool
	IsDeleted         bool
	IsArchiving       bool
	IsRegistration    bool
	IsRetracted       bool
	PendingRetraction bool
	PendingEmbargo    bool
	EmbargoEndDate    *time.Time
	RegisteredDate    *time.Time
	DateCreated       time.Time
	ParentID          string
	Contributors      []Contributor
	WikiPages         map[string]string
}

// ValidID reports whether id is a usable entity identifier.
func ValidID(id string) bool {
	return id != "" && len(id) <= 256 && idRegex.MatchString(id)
}

// DocType returns the indexing classification. Component categories take
// precedence over registration status.
func (n *Node) DocType() Kind {
	switch {
	case n.Category != CategoryProject:
		return KindComponent
	case n.IsRegistration:
		return KindRegistration
	default:
		return KindProject
	}
}

// URL returns the site-relative URL of the node.
func (n *Node) URL() string { return "/" + n.ID + "/" }

// Indexable reports whether the node may appear in the search index.
func (n *Node) Indexable() bool {
	return n.IsPublic && !n.IsDeleted && !n.IsArchiving
}

// VisibleContributors returns contributors flagged as visible, in order.
func (n *Node) VisibleContributors() []Contributor {
	out := make([]Contributor, 0, len(n.Contributors))
	for _, c := range n.Contributors {
		if c.Visible {
			out = append(out, c)
		}
	}
	return out
}

// HasContributor reports whether the user id contributes to the node.
func (n *Node) HasContributor(userID string) bool {
	for _, c := range n.Contributors {
		if c.ID == userID {
			return true
		}
	}
	return false
}

// ContributorIDs returns the ids of every contributor, visible or not.
func (n *Node) ContributorIDs() []string {
	ids := make([]string, 0, len(n.Contributors))
	for _, c := range n.Contributors {
		ids = append(ids, c.ID)
	}
	return ids
}
