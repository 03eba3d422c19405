package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/osfio/osfsearch/internal/domain/entity"
)

// Type is the document-type tag stored in the category field.
type Type string

// Document types that exist in the index.
const (
	TypeProject      Type = "project"
	TypeComponent    Type = "component"
	TypeRegistration Type = "registration"
	TypeUser         Type = "user"
)

// Types lists every document type in display order.
var Types = []Type{TypeProject, TypeComponent, TypeRegistration, TypeUser}

// TotalKey is the counts key holding the sum of all per-type counts.
const TotalKey = "total"

// Aliases maps each counts key to its display label.
var Aliases = map[string]string{
	string(TypeProject):      "Projects",
	string(TypeComponent):    "Components",
	string(TypeRegistration): "Registrations",
	string(TypeUser):         "Users",
	TotalKey:                 "Total",
}

// ParseType validates a type name.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeProject, TypeComponent, TypeRegistration, TypeUser:
		return t, nil
	default:
		return "", fmt.Errorf("unknown document type %q", s)
	}
}

// ProjectLike reports whether t describes a node.
func (t Type) ProjectLike() bool {
	return t == TypeProject || t == TypeComponent || t == TypeRegistration
}

// TypeOf converts a node classification into its document type.
func TypeOf(k entity.Kind) Type { return Type(k) }

// Contributor is a contributor entry inside a node document.
// URL is null for inactive users.
type Contributor struct {
	Fullname string  `json:"fullname"`
	URL      *string `json:"url"`
}

// Node is the indexed projection of a project, component or registration.
type Node struct {
	ID                string            `json:"id"`
	Contributors      []Contributor     `json:"contributors"`
	Title             string            `json:"title"`
	NormalizedTitle   string            `json:"normalized_title"`
	Category          Type              `json:"category"`
	Public            bool              `json:"public"`
	Tags              []string          `json:"tags"`
	Description       string            `json:"description"`
	URL               string            `json:"url"`
	IsRegistration    bool              `json:"is_registration"`
	IsRetracted       bool              `json:"is_retracted"`
	PendingRetraction bool              `json:"pending_retraction"`
	EmbargoEndDate    *string           `json:"embargo_end_date"`
	PendingEmbargo    bool              `json:"pending_embargo"`
	RegisteredDate    *time.Time        `json:"registered_date"`
	Wikis             map[string]string `json:"wikis"`
	ParentID          *string           `json:"parent_id"`
	DateCreated       time.Time         `json:"date_created"`
	Boost             int               `json:"boost"`
}

// Names holds the name parts of a user.
type Names struct {
	Fullname    string `json:"fullname"`
	GivenName   string `json:"given_name,omitempty"`
	FamilyName  string `json:"family_name,omitempty"`
	MiddleNames string `json:"middle_names,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
}

// User is the indexed projection of a user.
type User struct {
	ID              string            `json:"id"`
	User            string            `json:"user"`
	NormalizedUser  string            `json:"normalized_user"`
	NormalizedNames Names             `json:"normalized_names"`
	Names           Names             `json:"names"`
	Job             string            `json:"job"`
	JobTitle        string            `json:"job_title"`
	School          string            `json:"school"`
	Degree          string            `json:"degree"`
	Social          map[string]string `json:"social"`
	Category        Type              `json:"category"`
	Boost           int               `json:"boost"`
}

// Document is an index document tagged by type (immutable value object).
// Exactly one of node or user is set.
type Document struct {
	id   string
	typ  Type
	node *Node
	user *User
}

// NewNode validates and creates a node document.
func NewNode(n Node) (Document, error) {
	if !entity.ValidID(n.ID) {
		return Document{}, fmt.Errorf("invalid document ID %q", n.ID)
	}
	if !n.Category.ProjectLike() {
		return Document{}, fmt.Errorf("node document with category %q", n.Category)
	}
	if n.Boost != 1 && n.Boost != 2 {
		return Document{}, fmt.Errorf("boost must be 1 or 2, got %d", n.Boost)
	}
	if n.Category == TypeComponent && n.ParentID == nil {
		return Document{}, fmt.Errorf("component %q has no parent", n.ID)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.Contributors == nil {
		n.Contributors = []Contributor{}
	}
	if n.Wikis == nil {
		n.Wikis = map[string]string{}
	}
	return Document{id: n.ID, typ: n.Category, node: &n}, nil
}

// NewUser validates and creates a user document.
func NewUser(u User) (Document, error) {
	if !entity.ValidID(u.ID) {
		return Document{}, fmt.Errorf("invalid document ID %q", u.ID)
	}
	if u.Category != TypeUser {
		return Document{}, fmt.Errorf("user document with category %q", u.Category)
	}
	if u.Boost != 2 {
		return Document{}, fmt.Errorf("user boost must be 2, got %d", u.Boost)
	}
	return Document{id: u.ID, typ: TypeUser, user: &u}, nil
}

// Decode hydrates a document from stored source without validation.
func Decode(src []byte) (Document, error) {
	var head struct {
		ID       string `json:"id"`
		Category Type   `json:"category"`
	}
	if err := json.Unmarshal(src, &head); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if head.Category == TypeUser {
		var u User
		if err := json.Unmarshal(src, &u); err != nil {
			return Document{}, fmt.Errorf("decode user document: %w", err)
		}
		return Document{id: u.ID, typ: TypeUser, user: &u}, nil
	}
	var n Node
	if err := json.Unmarshal(src, &n); err != nil {
		return Document{}, fmt.Errorf("decode node document: %w", err)
	}
	return Document{id: n.ID, typ: n.Category, node: &n}, nil
}

// ID returns the document key, equal to the entity identifier.
func (d Document) ID() string { return d.id }

// Type returns the document type.
func (d Document) Type() Type { return d.typ }

// Node returns a copy of the node projection.
func (d Document) Node() (Node, bool) {
	if d.node == nil {
		return Node{}, false
	}
	return *d.node, true
}

// User returns a copy of the user projection.
func (d Document) User() (User, bool) {
	if d.user == nil {
		return User{}, false
	}
	return *d.user, true
}

// MarshalJSON encodes the document source.
func (d Document) MarshalJSON() ([]byte, error) {
	switch {
	case d.node != nil:
		return json.Marshal(d.node)
	case d.user != nil:
		return json.Marshal(d.user)
	default:
		return nil, fmt.Errorf("empty document")
	}
}
