package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ChangJoo-Park/json-api/internal/adapter"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"people", "people", 0},
		{"naïve", "naive", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"people", "organizations", "schools"}

	assert.Equal(t, []string{"people"}, Suggest("peple", candidates))
	assert.Equal(t, []string{"schools"}, Suggest("School", candidates))
	assert.Empty(t, Suggest("planets", candidates))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "FIELD", "TYPE")
	table.AddRow("id", "id")
	table.AddRow("liaisons", "→ [people]")
	table.AddRow("name")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"FIELD     TYPE",
		"────────  ──────────",
		"id        id",
		"liaisons  → [people]",
		"name",
	}, lines)
}

func TestRenderTypeDocs(t *testing.T) {
	limit := 30.0
	docs := TypeDocs{
		Type: "organizations",
		Fields: []adapter.FieldDocumentation{
			{Name: "id", FriendlyName: "ID", Type: adapter.FieldType{Kind: adapter.KindID}, Default: adapter.DefaultHint{Kind: adapter.DefaultAutoGenerated}},
			{Name: "name", FriendlyName: "Name", Type: adapter.FieldType{Kind: adapter.KindValue, BaseType: "String"},
				Validation: adapter.ValidationRules{Required: true, Max: &limit}},
			{Name: "kind", FriendlyName: "Kind", Type: adapter.FieldType{Kind: adapter.KindValue, BaseType: "String"},
				Validation: adapter.ValidationRules{OneOf: []string{"public", "private"}},
				Default:    adapter.DefaultHint{Kind: adapter.DefaultLiteral, Value: "public"}},
			{Name: "liaisons", FriendlyName: "Liaisons", Type: adapter.FieldType{Kind: adapter.KindRelationship, ToMany: true, TargetType: "people"}},
			{Name: "displayName", FriendlyName: "Display Name"},
		},
		AllowedTypes:  []string{"organizations", "schools"},
		Relationships: []string{"liaisons"},
	}

	var buf bytes.Buffer
	RenderTypeDocs(&buf, docs, true)
	out := buf.String()

	assert.Contains(t, out, "organizations\n  5 fields")
	assert.Contains(t, out, "required, max 30")
	assert.Contains(t, out, "one of public|private")
	assert.Contains(t, out, "→ [people]")
	assert.Contains(t, out, "virtual")
	assert.Contains(t, out, "auto")
	assert.Contains(t, out, "Types stored in this collection\n  organizations\n  schools")
	assert.Contains(t, out, "Relationships\n  liaisons")
}
