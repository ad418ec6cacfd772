package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/resource"
)

func TestResourceToDocObject(t *testing.T) {
	r := resource.New("schools", "abc", map[string]interface{}{
		"name":    "High",
		"address": map[string]interface{}{"city": "Springfield"},
	}, map[string]resource.Relationship{
		"principal": resource.NewRelationship(resource.ToOne(&resource.Identifier{Type: "people", ID: "p1"})),
		"liaisons": resource.NewRelationship(resource.ToMany([]*resource.Identifier{
			{Type: "people", ID: "p2"}, nil, {Type: "people", ID: "p3"},
		})),
		"meta.owner": resource.NewRelationship(resource.ToOne(nil)),
	})

	obj, err := resourceToDocObject(r)
	require.NoError(t, err)

	assert.Equal(t, "abc", obj["_id"])
	assert.Equal(t, "p1", obj["principal"])
	assert.Equal(t, []interface{}{"p2", "p3"}, obj["liaisons"])
	assert.Equal(t, map[string]interface{}{"owner": nil}, obj["meta"])

	// Nested attributes are copied.
	obj["address"].(map[string]interface{})["city"] = "Shelbyville"
	assert.Equal(t, "Springfield", r.Attributes["address"].(map[string]interface{})["city"])

	_, err = resourceToDocObject(resource.New("schools", "", nil, map[string]resource.Relationship{
		"a..b": resource.NewRelationship(resource.ToOne(nil)),
	}))
	requireAPIError(t, err, 400, "Invalid relationship name.")
}

func TestLinkageFor(t *testing.T) {
	toOne := &docstore.Field{Path: docstore.Path{"principal"}, Type: docstore.TypeObjectID, Ref: "Person"}
	toMany := &docstore.Field{Path: docstore.Path{"liaisons"}, Type: docstore.TypeObjectID, Ref: "Person", Array: true}

	tests := []struct {
		name   string
		field  *docstore.Field
		raw    interface{}
		many   bool
		expect []string
	}{
		{"to-one id", toOne, "p1", false, []string{"p1"}},
		{"to-one absent", toOne, nil, false, []string{}},
		{"to-one populated", toOne, map[string]interface{}{"_id": "p1", "name": "Ann"}, false, []string{"p1"}},
		{"to-many ids", toMany, []interface{}{"p1", "p2"}, true, []string{"p1", "p2"}},
		{"to-many absent", toMany, nil, true, []string{}},
		{"to-many populated", toMany, []interface{}{map[string]interface{}{"_id": "p2"}, "p3"}, true, []string{"p2", "p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := linkageFor(tt.field, tt.raw)
			assert.Equal(t, tt.many, l.IsToMany())
			assert.Equal(t, tt.expect, l.IDs())
			for _, id := range l.Identifiers() {
				assert.Equal(t, "people", id.Type)
			}
		})
	}
}

func TestMapper_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	ann := f.person(t, "Ann")
	bob := f.person(t, "Bob")

	input := resource.New("schools", "", map[string]interface{}{
		"name":      "High",
		"isCollege": true,
		"address":   map[string]interface{}{"city": "Springfield"},
	}, map[string]resource.Relationship{
		"principal": resource.NewRelationship(resource.ToOne(&resource.Identifier{Type: "people", ID: ann.ID})),
		"liaisons": resource.NewRelationship(resource.ToMany([]*resource.Identifier{
			{Type: "people", ID: bob.ID}, {Type: "people", ID: ann.ID},
		})),
	})

	obj, err := resourceToDocObject(input)
	require.NoError(t, err)

	model, err := f.adapter.Registry().ForType("schools")
	require.NoError(t, err)
	docs, err := model.Create(ctx, []map[string]interface{}{obj})
	require.NoError(t, err)

	out, err := f.adapter.docToResource(docs[0], nil)
	require.NoError(t, err)

	assert.Equal(t, "schools", out.Type)
	assert.Equal(t, docs[0].ID(), out.ID)
	for k, v := range input.Attributes {
		assert.Equal(t, v, out.Attributes[k], k)
	}
	assert.NotContains(t, out.Attributes, "__t")
	assert.Equal(t, []string{ann.ID}, out.Relationships["principal"].Linkage.IDs())
	assert.Equal(t, []string{bob.ID, ann.ID}, out.Relationships["liaisons"].Linkage.IDs())

	back, err := resourceToDocObject(out)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, back["principal"])
	assert.Equal(t, []interface{}{bob.ID, ann.ID}, back["liaisons"])
}
