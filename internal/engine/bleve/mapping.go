package bleve

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/osfio/osfsearch/internal/engine"
)

// buildMapping converts an index definition into a bleve mapping. Fields not
// named in the definition are indexed dynamically.
//
// Query strings without a field are matched against _all, analyzed with the
// default english analyzer. Every text field is therefore indexed twice into
// _all, once with its own analyzer and once with the other one, so stemmed
// query terms and unanalyzed prefix wildcards both find their tokens.
func buildMapping(def *engine.IndexDefinition) mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()
	if def != nil {
		for _, f := range def.Fields {
			parent := docMapping
			parts := strings.Split(f.Name, ".")
			for _, p := range parts[:len(parts)-1] {
				sub, ok := parent.Properties[p]
				if !ok {
					sub = bleve.NewDocumentMapping()
					parent.AddSubDocumentMapping(p, sub)
				}
				parent = sub
			}
			leaf := parts[len(parts)-1]
			parent.AddFieldMappingsAt(leaf, fieldMappings(leaf, f)...)
		}
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = en.AnalyzerName
	return im
}

// Suffixes of the companion text fields.
const (
	exactSuffix = "_exact"
	stemSuffix  = "_stem"
)

func fieldMappings(leaf string, f engine.Field) []*mapping.FieldMapping {
	if f.Type != engine.FieldText {
		return []*mapping.FieldMapping{fieldMapping(f)}
	}
	primary := bleve.NewTextFieldMapping()
	companion := bleve.NewTextFieldMapping()
	companion.Store = false
	if f.Analyzer == engine.AnalyzerEnglish {
		primary.Analyzer = en.AnalyzerName
		companion.Analyzer = standard.Name
		companion.Name = leaf + exactSuffix
	} else {
		primary.Analyzer = standard.Name
		companion.Analyzer = en.AnalyzerName
		companion.Name = leaf + stemSuffix
	}
	return []*mapping.FieldMapping{primary, companion}
}

func fieldMapping(f engine.Field) *mapping.FieldMapping {
	switch f.Type {
	case engine.FieldNumeric:
		return bleve.NewNumericFieldMapping()
	case engine.FieldDate:
		return bleve.NewDateTimeFieldMapping()
	case engine.FieldBool:
		return bleve.NewBooleanFieldMapping()
	default:
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		return fm
	}
}
