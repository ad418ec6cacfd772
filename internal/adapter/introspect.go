package adapter

import (
	"regexp"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/naming"
	"github.com/ChangJoo-Park/json-api/internal/util/graph"
)

// FieldKind classifies a documented field.
type FieldKind int

const (
	// KindUnknown is used for virtuals, whose type cannot be derived
	KindUnknown FieldKind = iota
	// KindID is the primary key
	KindID
	// KindValue is a stored scalar or list of scalars
	KindValue
	// KindRelationship is a reference to other resources
	KindRelationship
)

// String returns the string representation of the field kind
func (k FieldKind) String() string {
	switch k {
	case KindID:
		return "Id"
	case KindValue:
		return "Value"
	case KindRelationship:
		return "Relationship"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// FieldType describes the type of a documented field.
type FieldType struct {
	Kind       FieldKind `json:"kind"`
	BaseType   string    `json:"baseType,omitempty"`
	IsArray    bool      `json:"isArray,omitempty"`
	ToMany     bool      `json:"toMany,omitempty"`
	TargetType string    `json:"targetType,omitempty"`
}

// ValidationRules lists the validators declared for a field.
type ValidationRules struct {
	Required bool                   `json:"required,omitempty"`
	OneOf    []string               `json:"oneOf,omitempty"`
	Max      *float64               `json:"max,omitempty"`
	Extra    map[string]interface{} `json:"extra,omitempty"`
}

// DefaultKind classifies a default hint.
type DefaultKind int

const (
	// DefaultNone means no default is documented
	DefaultNone DefaultKind = iota
	// DefaultLiteral carries a static default value
	DefaultLiteral
	// DefaultAutoGenerated marks values the store generates
	DefaultAutoGenerated
)

// String returns the string representation of the default kind
func (k DefaultKind) String() string {
	switch k {
	case DefaultLiteral:
		return "literal"
	case DefaultAutoGenerated:
		return "autoGenerated"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k DefaultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DefaultHint documents a field's default value.
type DefaultHint struct {
	Kind  DefaultKind `json:"kind"`
	Value interface{} `json:"value,omitempty"`
}

// AutoGenerated reports whether the store generates the value.
func (h DefaultHint) AutoGenerated() bool {
	return h.Kind == DefaultAutoGenerated
}

// FieldDocumentation describes one field of a resource type.
type FieldDocumentation struct {
	Name         string          `json:"name"`
	Type         FieldType       `json:"type"`
	Validation   ValidationRules `json:"validation"`
	FriendlyName string          `json:"friendlyName"`
	Default      DefaultHint     `json:"default"`
}

var timestampName = regexp.MustCompile(`(?i)^(date.*|.*(created|updated|modified)(at|on|date)?)$`)

// GetStandardizedSchema documents the fields of typ: the id first, then the
// declared fields in order, then virtuals.
func (a *Adapter) GetStandardizedSchema(typ string) ([]FieldDocumentation, error) {
	model, err := a.registry.ForType(typ)
	if err != nil {
		return nil, err
	}
	schema := model.Schema()

	docs := []FieldDocumentation{{
		Name:         docstore.IDAlias,
		Type:         FieldType{Kind: KindID},
		FriendlyName: "ID",
		Default:      DefaultHint{Kind: DefaultAutoGenerated},
	}}

	covered := map[string]bool{docstore.IDAlias: true, docstore.IDKey: true}
	for _, f := range schema.Fields {
		name := f.Path.String()
		if name == schema.VersionKey || name == schema.DiscriminatorKey {
			continue
		}
		covered[name] = true
		docs = append(docs, documentField(f))
	}

	for _, v := range schema.Virtuals {
		if covered[v.Name] {
			continue
		}
		covered[v.Name] = true
		docs = append(docs, FieldDocumentation{
			Name:         v.Name,
			FriendlyName: naming.FriendlyName(v.Name),
		})
	}
	return docs, nil
}

func documentField(f *docstore.Field) FieldDocumentation {
	name := f.Path.String()

	doc := FieldDocumentation{
		Name:         name,
		FriendlyName: f.FriendlyName,
	}
	if doc.FriendlyName == "" {
		doc.FriendlyName = naming.FriendlyName(name)
	}

	if f.IsReference() {
		doc.Type = FieldType{
			Kind:       KindRelationship,
			ToMany:     f.Array,
			TargetType: naming.APIType(f.Ref),
		}
	} else {
		doc.Type = FieldType{
			Kind:     KindValue,
			BaseType: f.Type.String(),
			IsArray:  f.Array,
		}
	}

	doc.Validation.Required = f.Required
	if len(f.Enum) > 0 {
		doc.Validation.OneOf = append([]string(nil), f.Enum...)
	}
	switch {
	case f.Max != nil:
		limit := *f.Max
		doc.Validation.Max = &limit
	case f.MaxLength != nil:
		limit := float64(*f.MaxLength)
		doc.Validation.Max = &limit
	}
	if len(f.Validation) > 0 {
		doc.Validation.Extra = make(map[string]interface{}, len(f.Validation))
		for k, v := range f.Validation {
			doc.Validation.Extra[k] = v
		}
	}

	last := f.Path[len(f.Path)-1]
	switch {
	case f.DefaultFunc != nil:
		if f.Type == docstore.TypeDate && timestampName.MatchString(last) {
			doc.Default = DefaultHint{Kind: DefaultAutoGenerated}
		}
	case f.Default != nil:
		doc.Default = DefaultHint{Kind: DefaultLiteral, Value: f.Default}
	}
	return doc
}

// GetTypesAllowedInCollection returns typ followed by the types of all its
// discriminator descendants, parents before children.
func (a *Adapter) GetTypesAllowedInCollection(typ string) ([]string, error) {
	model, err := a.registry.ForType(typ)
	if err != nil {
		return nil, err
	}

	nodes := []string{model.Name()}
	edges := make(map[string][]string)
	pending := []string{model.Name()}
	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]

		m, ok := a.registry.Model(name)
		if !ok {
			continue
		}
		for _, child := range m.ChildModels() {
			if _, registered := a.registry.Model(child); !registered {
				continue
			}
			edges[name] = append(edges[name], child)
			nodes = append(nodes, child)
			pending = append(pending, child)
		}
	}

	sorted := graph.PseudoTopSort(nodes, edges, []string{model.Name()})
	types := make([]string, len(sorted))
	for i, name := range sorted {
		types[i] = naming.APIType(name)
	}
	return types, nil
}

// GetRelationshipNames returns the relationship names of typ in schema
// order.
func (a *Adapter) GetRelationshipNames(typ string) ([]string, error) {
	model, err := a.registry.ForType(typ)
	if err != nil {
		return nil, err
	}

	refs := model.Schema().ReferenceFields()
	names := make([]string, len(refs))
	for i, f := range refs {
		names[i] = f.Path.String()
	}
	return names, nil
}
