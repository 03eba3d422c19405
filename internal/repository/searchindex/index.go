package searchindex

import (
	"sync"

	"github.com/osfio/osfsearch/internal/engine"
)

// DefaultIndex is the index shared by every document type.
const DefaultIndex = "website"

// Definition returns the index mapping. Tags and category are not analyzed so
// aggregations see whole values; title and description are stemmed.
func Definition(name string) *engine.IndexDefinition {
	return engine.NewIndex(name).
		Keyword("id", "category", "tags", "url", "parent_id", "embargo_end_date").
		Text("title", engine.AnalyzerEnglish).
		Text("description", engine.AnalyzerEnglish).
		Text("normalized_title", engine.AnalyzerStandard).
		Text("contributors.fullname", engine.AnalyzerStandard).
		Text("user", engine.AnalyzerStandard).
		Text("normalized_user", engine.AnalyzerStandard).
		Text("names.fullname", engine.AnalyzerStandard).
		Text("names.given_name", engine.AnalyzerStandard).
		Text("names.family_name", engine.AnalyzerStandard).
		Text("names.middle_names", engine.AnalyzerStandard).
		Text("normalized_names.fullname", engine.AnalyzerStandard).
		Text("normalized_names.given_name", engine.AnalyzerStandard).
		Text("normalized_names.family_name", engine.AnalyzerStandard).
		Text("normalized_names.middle_names", engine.AnalyzerStandard).
		Text("job", engine.AnalyzerStandard).
		Text("school", engine.AnalyzerStandard).
		Numeric("boost").
		Date("date_created", "registered_date").
		Bool("public", "is_registration", "is_retracted", "pending_retraction", "pending_embargo").
		MustBuild()
}

// mapping is the field layout shared by every index name.
var mapping = sync.OnceValue(func() *engine.IndexDefinition { return Definition(DefaultIndex) })

// Sortable reports whether hits can be ordered by field.
func Sortable(field string) bool {
	return mapping().Sortable(field)
}
