// Package query builds engine-native search bodies.
//
// A Body carries one predicate and derives three request shapes from it:
// the hit query (window and sort applied), the per-type count query and the
// tag-cloud query. The two aggregation shapes never carry from, size or sort.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
)

// Aggregation names in engine responses.
const (
	CountsAgg = "counts"
	TagsAgg   = "tag_cloud"
)

// MatchAll is the term that matches every document.
const MatchAll = "*"

// MaxTermLength bounds the free-text term.
const MaxTermLength = 4096

var sortFieldRegex = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// searchFields are the fields a free-text term is matched against.
var searchFields = []string{
	"title^4", "normalized_title^4", "description^1.2",
	"user^2", "normalized_user^2", "names.*", "normalized_names.*",
	"job", "school", "tags", "contributors.fullname", "wikis.*",
}

// Clause is one node of the engine query DSL.
type Clause = map[string]any

// TermsAgg aggregates documents by the values of one keyword field.
type TermsAgg struct {
	Field string `json:"field"`
	Size  int    `json:"size,omitempty"`
}

// Aggregation is a named aggregation in a request body.
type Aggregation struct {
	Terms TermsAgg `json:"terms"`
}

// Body is an engine search request body.
type Body struct {
	Query Clause                 `json:"query,omitempty"`
	From  *int                   `json:"from,omitempty"`
	Size  *int                   `json:"size,omitempty"`
	Sort  []map[string]any       `json:"sort,omitempty"`
	Aggs  map[string]Aggregation `json:"aggs,omitempty"`

	// Types restricts the hit query to these document types. Counts and
	// tags are computed across every type.
	Types []document.Type `json:"-"`
}

// Query is a validated free-text search.
type Query struct {
	Term   string
	Offset int
	Size   int
	Sort   string
	Type   document.Type
}

// Validate checks the window and the optional sort and type.
func (q Query) Validate() error {
	if q.Offset < 0 {
		return fmt.Errorf("%w: offset must be >= 0", domain.ErrInvalidQuery)
	}
	if q.Size <= 0 {
		return fmt.Errorf("%w: size must be > 0", domain.ErrInvalidQuery)
	}
	if len(q.Term) > MaxTermLength {
		return fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxTermLength)
	}
	if q.Sort != "" {
		if _, err := ParseSort(q.Sort); err != nil {
			return err
		}
	}
	if q.Type != "" {
		if _, err := document.ParseType(string(q.Type)); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
	}
	return nil
}

// Build translates q into a request body. An empty term or "*" matches all
// documents. Relevance is multiplied by each document's stored boost.
func Build(q Query) (Body, error) {
	if err := q.Validate(); err != nil {
		return Body{}, err
	}
	from, size := q.Offset, q.Size
	b := Body{
		Query: boosted(termClause(q.Term)),
		From:  &from,
		Size:  &size,
	}
	if q.Sort != "" {
		srt, _ := ParseSort(q.Sort)
		b.Sort = []map[string]any{srt.Clause()}
	}
	if q.Type != "" {
		b.Types = []document.Type{q.Type}
	}
	return b, nil
}

// Sort orders hits by one field.
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort reads "field", "field:asc", "field:desc" or "-field". A bare
// field sorts newest or largest first.
func ParseSort(s string) (Sort, error) {
	srt := Sort{Field: s, Desc: true}
	switch {
	case strings.HasPrefix(s, "-"):
		srt.Field = s[1:]
	case strings.Contains(s, ":"):
		field, dir, _ := strings.Cut(s, ":")
		srt.Field = field
		switch strings.ToLower(dir) {
		case "asc":
			srt.Desc = false
		case "desc":
		default:
			return Sort{}, fmt.Errorf("%w: invalid sort direction %q", domain.ErrInvalidQuery, dir)
		}
	}
	if !sortFieldRegex.MatchString(srt.Field) {
		return Sort{}, fmt.Errorf("%w: invalid sort field %q", domain.ErrInvalidQuery, srt.Field)
	}
	return srt, nil
}

// Clause renders the sort as {"field": {"order": "asc"|"desc"}}.
func (s Sort) Clause() map[string]any {
	order := "asc"
	if s.Desc {
		order = "desc"
	}
	return map[string]any{s.Field: Clause{"order": order}}
}

// Window returns the hit window as [from, from+size). Missing values
// default to the engine defaults of 0 and 10.
func (b Body) Window() (from, to int) {
	from, size := 0, 10
	if b.From != nil {
		from = *b.From
	}
	if b.Size != nil {
		size = *b.Size
	}
	return from, from + size
}

// Validate rejects negative windows in caller-supplied bodies.
func (b Body) Validate() error {
	if b.From != nil && *b.From < 0 {
		return fmt.Errorf("%w: from must be >= 0", domain.ErrInvalidQuery)
	}
	if b.Size != nil && *b.Size < 0 {
		return fmt.Errorf("%w: size must be >= 0", domain.ErrInvalidQuery)
	}
	return nil
}

// Hits returns the hit-returning request, with the type restriction applied.
func (b Body) Hits() Body {
	out := Body{
		Query: b.predicate(),
		From:  b.From,
		Size:  b.Size,
		Sort:  b.Sort,
	}
	if len(b.Types) > 0 {
		values := make([]string, 0, len(b.Types))
		for _, t := range b.Types {
			values = append(values, string(t))
		}
		out.Query = Clause{"bool": Clause{
			"must":   []any{out.Query},
			"filter": []any{Clause{"terms": Clause{"category": values}}},
		}}
	}
	return out
}

// Counts returns the count-only request aggregated by document type.
func (b Body) Counts() Body {
	return Body{
		Query: b.predicate(),
		Aggs:  map[string]Aggregation{CountsAgg: {Terms: TermsAgg{Field: "category"}}},
	}
}

// Tags returns the tag-frequency request.
func (b Body) Tags() Body {
	return Body{
		Query: b.predicate(),
		Aggs:  map[string]Aggregation{TagsAgg: {Terms: TermsAgg{Field: "tags"}}},
	}
}

func (b Body) predicate() Clause {
	if b.Query == nil {
		return Clause{"match_all": Clause{}}
	}
	return b.Query
}

func termClause(term string) Clause {
	term = strings.TrimSpace(term)
	if term == "" || term == MatchAll {
		return Clause{"match_all": Clause{}}
	}
	return Clause{"query_string": Clause{
		"query":            term,
		"fields":           searchFields,
		"default_operator": "AND",
		"analyze_wildcard": true,
		"lenient":          true,
	}}
}

func boosted(c Clause) Clause {
	return Clause{"function_score": Clause{
		"query": c,
		"field_value_factor": Clause{
			"field":   "boost",
			"missing": 1,
		},
		"boost_mode": "multiply",
	}}
}
