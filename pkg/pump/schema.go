package pump

import (
	"fmt"
	"slices"

	"github.com/de-tools/data-pump/pkg/models/domain"
)

// Schema is the static description of a pump type: its declared fields and the
// column order of the rows it generates. It is immutable once built.
type Schema struct {
	fields      []domain.Field
	outputShape []string
	override    bool
	index       map[string]int
}

// SchemaBuilder implements the registration protocol. Errors are collected and
// reported by Build, so declarations read as one block at the pump's definition.
type SchemaBuilder struct {
	fields      []domain.Field
	outputShape []string
	err         error
}

func NewSchema() *SchemaBuilder {
	return &SchemaBuilder{}
}

// DeclareField appends one field to the schema.
func (b *SchemaBuilder) DeclareField(name string, dataType domain.DataType) *SchemaBuilder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = fmt.Errorf("field name cannot be empty")
		return b
	}
	for _, f := range b.fields {
		if f.Name == name {
			b.err = fmt.Errorf("field %q is already declared", name)
			return b
		}
	}
	f, err := domain.NewField(name, dataType)
	if err != nil {
		b.err = err
		return b
	}
	b.fields = append(b.fields, f)
	return b
}

// DeclareFields declares each name with the same data type.
func (b *SchemaBuilder) DeclareFields(names []string, dataType domain.DataType) *SchemaBuilder {
	for _, name := range names {
		b.DeclareField(name, dataType)
	}
	return b
}

// DeclareOutputShape overrides the generated column order when rows do not map
// one to one onto the declared fields. Names that are not declared fields are
// derived columns and carry no data type.
func (b *SchemaBuilder) DeclareOutputShape(names ...string) *SchemaBuilder {
	if b.err != nil {
		return b
	}
	if len(names) == 0 {
		b.err = fmt.Errorf("output shape cannot be empty")
		return b
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			b.err = fmt.Errorf("output column %q appears twice", name)
			return b
		}
		seen[name] = struct{}{}
	}
	b.outputShape = slices.Clone(names)
	return b
}

func (b *SchemaBuilder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}

	s := &Schema{
		fields:   slices.Clone(b.fields),
		override: b.outputShape != nil,
	}
	if s.override {
		s.outputShape = slices.Clone(b.outputShape)
	} else {
		for _, f := range b.fields {
			s.outputShape = append(s.outputShape, f.Name)
		}
	}

	s.index = make(map[string]int, len(s.outputShape))
	for i, name := range s.outputShape {
		s.index[name] = i
	}
	return s, nil
}

// MustBuild is Build for package-level schema declarations.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []domain.Field {
	return slices.Clone(s.fields)
}

func (s *Schema) Field(name string) (domain.Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return domain.Field{}, false
}

// OutputShape returns the columns of each generated row, in order.
func (s *Schema) OutputShape() []string {
	return slices.Clone(s.outputShape)
}

func (s *Schema) HasOutputOverride() bool {
	return s.override
}

// ColumnIndex returns the position of an output column.
func (s *Schema) ColumnIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// ColumnType returns the declared type of a column; derived columns report false.
func (s *Schema) ColumnType(name string) (domain.DataType, bool) {
	f, ok := s.Field(name)
	if !ok {
		return "", false
	}
	return f.DataType(), true
}

// Width is the number of values in every generated row.
func (s *Schema) Width() int {
	return len(s.outputShape)
}
