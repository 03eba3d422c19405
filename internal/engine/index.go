package engine

import (
	"errors"
	"strconv"
)

// FieldType enumerates supported mapping field types.
type FieldType int

const (
	// FieldKeyword is an exact-match, not analyzed field.
	FieldKeyword FieldType = iota
	// FieldText is an analyzed full-text field.
	FieldText
	// FieldNumeric is a numeric field.
	FieldNumeric
	// FieldDate is a date field.
	FieldDate
	// FieldBool is a boolean field.
	FieldBool
)

// Analyzer names for text fields.
const (
	AnalyzerStandard = "standard"
	AnalyzerEnglish  = "english"
)

// Field describes one mapped field. Dotted names address object properties.
type Field struct {
	Name     string
	Type     FieldType
	Analyzer string // FieldText only; empty means standard
}

// IndexDefinition is a complete index mapping.
type IndexDefinition struct {
	Name   string
	Fields []Field
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIndexName(idx.Name) {
		return errors.New("index name must be lowercase [a-z0-9_-] and not start with _ or -")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true

		if f.Analyzer != "" && f.Type != FieldText {
			return errors.New("analyzer set on non-text field: " + f.Name)
		}
	}

	return nil
}

// Sortable reports whether hits can be ordered by the named field. Only
// keyword, numeric and date fields qualify; analyzed text does not.
func (idx *IndexDefinition) Sortable(name string) bool {
	f, ok := idx.Field(name)
	if !ok {
		return false
	}
	switch f.Type {
	case FieldKeyword, FieldNumeric, FieldDate:
		return true
	default:
		return false
	}
}

// Field returns the named field.
func (idx *IndexDefinition) Field(name string) (Field, bool) {
	for _, f := range idx.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsValidIndexName returns true if s is a usable index name.
func IsValidIndexName(s string) bool {
	if s == "" || s[0] == '_' || s[0] == '-' || len(s) > 255 {
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '-'
		if !isLower && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
