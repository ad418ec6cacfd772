// Package docstore defines the contract between the JSON:API adapter and a
// schema-bearing document store: the schema descriptor every store supplies,
// the query builder, documents, and the errors a store reports.
package docstore

import "fmt"

// Reserved document keys
const (
	// IDKey holds a document's primary key
	IDKey = "_id"
	// IDAlias is the virtual alias of IDKey in serialized documents
	IDAlias = "id"
	// DefaultVersionKey holds the document revision
	DefaultVersionKey = "__v"
	// DefaultDiscriminatorKey holds the concrete model name of documents
	// stored in a shared collection
	DefaultDiscriminatorKey = "__t"
)

// BaseType is the declared storage type of a field.
type BaseType int

const (
	TypeString BaseType = iota
	TypeNumber
	TypeBoolean
	TypeDate
	TypeObjectID
	TypeMixed
)

// String returns the string representation of the base type
func (b BaseType) String() string {
	switch b {
	case TypeString:
		return "String"
	case TypeNumber:
		return "Number"
	case TypeBoolean:
		return "Boolean"
	case TypeDate:
		return "Date"
	case TypeObjectID:
		return "ObjectId"
	case TypeMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

// ParseBaseType converts a string to a BaseType
func ParseBaseType(s string) (BaseType, error) {
	switch s {
	case "String", "string":
		return TypeString, nil
	case "Number", "number":
		return TypeNumber, nil
	case "Boolean", "boolean", "bool":
		return TypeBoolean, nil
	case "Date", "date":
		return TypeDate, nil
	case "ObjectId", "objectid", "ref":
		return TypeObjectID, nil
	case "Mixed", "mixed":
		return TypeMixed, nil
	default:
		return 0, fmt.Errorf("unknown field type: %s", s)
	}
}

// Field describes one declared path of a schema.
type Field struct {
	Path  Path
	Type  BaseType
	Array bool // the path holds a list of Type

	// Ref names the model an ObjectId field points to. A field with a Ref
	// is a relationship.
	Ref string

	Required  bool
	Enum      []string
	Max       *float64 // maximum numeric value
	MaxLength *int     // maximum string length

	// Default is a static default. DefaultFunc, when set, computes the
	// default at construction time and takes precedence.
	Default     interface{}
	DefaultFunc func() interface{}

	// Set transforms a value after type coercion, before validation.
	Set func(interface{}) interface{}

	// Validation carries caller-defined validation metadata that is
	// reported in field documentation but not enforced by the store.
	Validation map[string]interface{}

	// FriendlyName overrides the generated label.
	FriendlyName string
}

// IsReference reports whether the field links to another model.
func (f *Field) IsReference() bool {
	return f.Ref != ""
}

// HasDefault reports whether the field declares any default.
func (f *Field) HasDefault() bool {
	return f.DefaultFunc != nil || f.Default != nil
}

// Virtual is a computed field present in serialized documents but never
// stored.
type Virtual struct {
	Name string
	Get  func(values map[string]interface{}) interface{}
}

// Schema is the descriptor a model exposes: its declared fields in order,
// its virtuals and its reserved keys.
type Schema struct {
	Fields           []*Field
	Virtuals         []*Virtual
	VersionKey       string
	DiscriminatorKey string
}

// NewSchema creates a schema with the default reserved keys.
func NewSchema(fields ...*Field) *Schema {
	return &Schema{
		Fields:           fields,
		VersionKey:       DefaultVersionKey,
		DiscriminatorKey: DefaultDiscriminatorKey,
	}
}

// Field returns the declared field at p.
func (s *Schema) Field(p Path) (*Field, bool) {
	for _, f := range s.Fields {
		if f.Path.Equal(p) {
			return f, true
		}
	}
	return nil, false
}

// HasPath reports whether p is a declared field or the id.
func (s *Schema) HasPath(p Path) bool {
	if len(p) == 1 && (p[0] == IDKey || p[0] == IDAlias) {
		return true
	}
	_, ok := s.Field(p)
	return ok
}

// ReferenceFields returns the relationship fields in declaration order.
func (s *Schema) ReferenceFields() []*Field {
	refs := make([]*Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.IsReference() {
			refs = append(refs, f)
		}
	}
	return refs
}

// Virtual returns the virtual named name.
func (s *Schema) Virtual(name string) (*Virtual, bool) {
	for _, v := range s.Virtuals {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Extend returns a new schema holding s's fields and virtuals followed by the
// given ones. Fields of extra replace inherited fields with the same path.
// Reserved keys are inherited.
func (s *Schema) Extend(extra *Schema) *Schema {
	out := &Schema{
		VersionKey:       s.VersionKey,
		DiscriminatorKey: s.DiscriminatorKey,
	}

	overridden := make(map[string]bool)
	if extra != nil {
		for _, f := range extra.Fields {
			overridden[f.Path.String()] = true
		}
	}
	for _, f := range s.Fields {
		if !overridden[f.Path.String()] {
			out.Fields = append(out.Fields, f)
		}
	}
	out.Virtuals = append(out.Virtuals, s.Virtuals...)

	if extra != nil {
		out.Fields = append(out.Fields, extra.Fields...)
		out.Virtuals = append(out.Virtuals, extra.Virtuals...)
	}
	return out
}
