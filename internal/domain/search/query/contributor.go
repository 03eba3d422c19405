package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/document"
)

var (
	splitRegex    = regexp.MustCompile(`[\s-]+`)
	luceneEscaper = strings.NewReplacer(
		`\`, `\\`, `+`, `\+`, `-`, `\-`, `=`, `\=`, `&`, `\&`, `|`, `\|`,
		`>`, `\>`, `<`, `\<`, `!`, `\!`, `(`, `\(`, `)`, `\)`, `{`, `\{`,
		`}`, `\}`, `[`, `\[`, `]`, `\]`, `^`, `\^`, `"`, `\"`, `~`, `\~`,
		`*`, `\*`, `?`, `\?`, `:`, `\:`, `/`, `\/`,
	)
)

var contributorFields = []string{
	"user", "normalized_user", "names.*", "normalized_names.*",
}

// Contributor is a contributor-autocomplete search.
type Contributor struct {
	Term    string
	Page    int
	Size    int
	Exclude []string
}

// BuildContributor turns a partial name into a prefix search over users.
// Each whitespace- or hyphen-separated item is normalized to ASCII and
// must prefix-match. Items are rendered as "item*~": the fuzzy marker is
// kept for Elasticsearch and dropped by the bleve translator. Excluded ids
// never match.
func BuildContributor(c Contributor) (Body, error) {
	if c.Page < 0 {
		return Body{}, fmt.Errorf("%w: page must be >= 0", domain.ErrInvalidQuery)
	}
	if c.Size <= 0 {
		return Body{}, fmt.Errorf("%w: size must be > 0", domain.ErrInvalidQuery)
	}
	if len(c.Term) > MaxTermLength {
		return Body{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxTermLength)
	}

	bq := Clause{
		"filter": []any{Clause{"term": Clause{"category": string(document.TypeUser)}}},
	}
	if qs := prefixTerms(c.Term); qs != "" {
		bq["must"] = []any{Clause{"query_string": Clause{
			"query":            qs,
			"fields":           contributorFields,
			"analyze_wildcard": true,
		}}}
	} else {
		bq["must"] = []any{Clause{"match_all": Clause{}}}
	}
	if len(c.Exclude) > 0 {
		bq["must_not"] = []any{Clause{"ids": Clause{"values": append([]string(nil), c.Exclude...)}}}
	}

	from, size := c.Page*c.Size, c.Size
	return Body{
		Query: boosted(Clause{"bool": bq}),
		From:  &from,
		Size:  &size,
		Types: []document.Type{document.TypeUser},
	}, nil
}

func prefixTerms(term string) string {
	items := splitRegex.Split(strings.TrimSpace(term), -1)
	parts := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(document.Normalize(item))
		if item == "" {
			continue
		}
		parts = append(parts, luceneEscaper.Replace(item)+"*~")
	}
	return strings.Join(parts, " AND ")
}
