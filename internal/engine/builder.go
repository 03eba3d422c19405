package engine

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Keyword adds not-analyzed fields.
func (b *IndexBuilder) Keyword(names ...string) *IndexBuilder {
	for _, n := range names {
		b.def.Fields = append(b.def.Fields, Field{Name: n, Type: FieldKeyword})
	}
	return b
}

// Text adds an analyzed field.
func (b *IndexBuilder) Text(name, analyzer string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, Field{Name: name, Type: FieldText, Analyzer: analyzer})
	return b
}

// Numeric adds a numeric field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, Field{Name: name, Type: FieldNumeric})
	return b
}

// Date adds a date field.
func (b *IndexBuilder) Date(names ...string) *IndexBuilder {
	for _, n := range names {
		b.def.Fields = append(b.def.Fields, Field{Name: n, Type: FieldDate})
	}
	return b
}

// Bool adds boolean fields.
func (b *IndexBuilder) Bool(names ...string) *IndexBuilder {
	for _, n := range names {
		b.def.Fields = append(b.def.Fields, Field{Name: n, Type: FieldBool})
	}
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Fields = append([]Field(nil), b.def.Fields...)
	return &def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
