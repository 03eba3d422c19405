package engine

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("website").
		Keyword("id", "tags").
		Text("title", AnalyzerEnglish).
		Numeric("boost").
		Date("date_created").
		Bool("public").
		MustBuild()

	if idx.Name != "website" {
		t.Errorf("name = %q, want website", idx.Name)
	}
	if len(idx.Fields) != 6 {
		t.Fatalf("fields count = %d, want 6", len(idx.Fields))
	}
	f, ok := idx.Field("title")
	if !ok || f.Type != FieldText || f.Analyzer != AnalyzerEnglish {
		t.Errorf("title field = %+v, %v", f, ok)
	}
	if f, _ := idx.Field("tags"); f.Type != FieldKeyword {
		t.Errorf("tags field = %+v, want keyword", f)
	}
	if _, ok := idx.Field("missing"); ok {
		t.Error("Field(missing) ok = true")
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
		wantErr string
	}{
		{"empty name", NewIndex("").Keyword("id"), "index name is required"},
		{"uppercase name", NewIndex("Website").Keyword("id"), "lowercase"},
		{"leading underscore", NewIndex("_x").Keyword("id"), "lowercase"},
		{"no fields", NewIndex("website"), "at least one field"},
		{"duplicate", NewIndex("website").Keyword("id").Keyword("id"), "duplicate field name: id"},
		{"empty field", NewIndex("website").Keyword(""), "field name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_AnalyzerOnKeyword(t *testing.T) {
	def := IndexDefinition{Name: "website", Fields: []Field{{Name: "tags", Type: FieldKeyword, Analyzer: AnalyzerEnglish}}}
	if err := def.Validate(); err == nil {
		t.Error("expected error for analyzer on keyword field")
	}
}

func TestIndexBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewIndex("").MustBuild()
}

func TestError(t *testing.T) {
	e := &Error{Op: OpSearch, Status: 400, Type: TypeParse, Reason: "bad"}
	if e.Error() != "search: [400] parse_exception: bad" {
		t.Errorf("Error() = %q", e.Error())
	}
	if IsNotFound(e) {
		t.Error("400 reported as not found")
	}
	if !IsNotFound(&Error{Op: OpSearch, Status: 404}) {
		t.Error("404 not reported as not found")
	}
}

func TestBulkResult_Failures(t *testing.T) {
	r := &BulkResult{Items: []BulkItem{
		{ID: "a", Status: 200},
		{ID: "b", Status: 404, Type: TypeDocumentMissing},
		{ID: "c", Status: 400, Type: "mapper_parsing_exception"},
	}}
	f := r.Failures()
	if len(f) != 2 {
		t.Fatalf("Failures() = %+v", f)
	}
	if !f[0].DocumentMissing() || f[1].DocumentMissing() {
		t.Errorf("DocumentMissing() = %v/%v", f[0].DocumentMissing(), f[1].DocumentMissing())
	}
}
