package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ChangJoo-Park/json-api/internal/adapter"
)

// TypeDocs is the introspected description of one resource type.
type TypeDocs struct {
	Type          string                       `json:"type"`
	Fields        []adapter.FieldDocumentation `json:"fields"`
	AllowedTypes  []string                     `json:"allowedTypes"`
	Relationships []string                     `json:"relationships"`
}

// RenderTypeDocs writes the fields, subtypes and relationships of a type.
func RenderTypeDocs(w io.Writer, docs TypeDocs, noColor bool) {
	title := NewSection(w, docs.Type, noColor)
	title.AddLine(fmt.Sprintf("%d fields", len(docs.Fields)))
	title.Render()

	table := NewTable(w, noColor, "FIELD", "NAME", "TYPE", "VALIDATION", "DEFAULT")
	for _, f := range docs.Fields {
		table.AddRow(f.Name, f.FriendlyName, describeType(f.Type), describeValidation(f.Validation), describeDefault(f.Default))
	}
	table.Render()
	fmt.Fprintln(w)

	allowed := NewSection(w, "Types stored in this collection", noColor)
	for _, typ := range docs.AllowedTypes {
		allowed.AddLine(typ)
	}
	allowed.Render()

	rels := NewSection(w, "Relationships", noColor)
	for _, name := range docs.Relationships {
		rels.AddLine(name)
	}
	rels.Render()
}

func describeType(t adapter.FieldType) string {
	switch t.Kind {
	case adapter.KindID:
		return "id"
	case adapter.KindRelationship:
		if t.ToMany {
			return "→ [" + t.TargetType + "]"
		}
		return "→ " + t.TargetType
	case adapter.KindValue:
		if t.IsArray {
			return "[" + t.BaseType + "]"
		}
		return t.BaseType
	default:
		return "virtual"
	}
}

func describeValidation(v adapter.ValidationRules) string {
	var parts []string
	if v.Required {
		parts = append(parts, "required")
	}
	if len(v.OneOf) > 0 {
		parts = append(parts, "one of "+strings.Join(v.OneOf, "|"))
	}
	if v.Max != nil {
		parts = append(parts, fmt.Sprintf("max %g", *v.Max))
	}

	keys := make([]string, 0, len(v.Extra))
	for k := range v.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v.Extra[k]))
	}
	return strings.Join(parts, ", ")
}

func describeDefault(d adapter.DefaultHint) string {
	switch d.Kind {
	case adapter.DefaultAutoGenerated:
		return "auto"
	case adapter.DefaultLiteral:
		return fmt.Sprintf("%v", d.Value)
	default:
		return ""
	}
}
