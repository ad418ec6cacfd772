package adapter

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
	"github.com/ChangJoo-Park/json-api/internal/query"
	"github.com/ChangJoo-Park/json-api/internal/resource"
)

func requireAPIError(t *testing.T, err error, status int, title string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := apierror.As(err)
	require.True(t, ok, "expected an APIError, got %v", err)
	assert.Equal(t, status, apiErr.Status)
	assert.Equal(t, title, apiErr.Title)
}

func TestDoQuery_PanicsOnUnknownQuery(t *testing.T) {
	f := setupAdapter(t)
	assert.Panics(t, func() {
		_, _ = f.adapter.DoQuery(context.Background(), nil)
	})
}

func TestCreate_Single(t *testing.T) {
	f := setupAdapter(t)

	org := f.organization(t, "organizations", "Acme")

	assert.Equal(t, "organizations", org.Type)
	assert.NotEmpty(t, org.ID)
	assert.Equal(t, "Acme", org.Attributes["name"])
	assert.Equal(t, "public", org.Attributes["kind"])
	assert.Equal(t, "The Acme", org.Attributes["displayName"])
	assert.Equal(t, fixedNow, org.Attributes["dateEstablished"])
	assert.NotContains(t, org.Attributes, "_id")
	assert.NotContains(t, org.Attributes, "id")
	assert.NotContains(t, org.Attributes, "__v")
	assert.NotContains(t, org.Attributes, "liaisons")

	liaisons := org.Relationships["liaisons"].Linkage
	assert.True(t, liaisons.IsToMany())
	assert.Empty(t, liaisons.Many())
}

func TestCreate_GroupsByType(t *testing.T) {
	f := setupAdapter(t)

	input := resource.Many(resource.Collection{
		resource.New("organizations", "", map[string]interface{}{"name": "One"}, nil),
		resource.New("people", "", map[string]interface{}{"name": "Ann"}, nil),
		resource.New("schools", "", map[string]interface{}{"name": "Two"}, nil),
		resource.New("organizations", "", map[string]interface{}{"name": "Three"}, nil),
	})

	result, err := f.adapter.DoQuery(context.Background(), query.NewCreate("organizations", input))
	require.NoError(t, err)
	require.True(t, result.Primary.IsMany())

	var got []string
	for _, r := range result.Primary.Collection() {
		got = append(got, r.Type+":"+r.Attributes["name"].(string))
	}
	assert.Equal(t, []string{"organizations:One", "organizations:Three", "people:Ann", "schools:Two"}, got)
}

func TestCreate_IDGenerator(t *testing.T) {
	var generated []string
	f := setupAdapter(t, WithIDGenerator(func() string {
		id := uuid.NewString()
		generated = append(generated, id)
		return id
	}))

	ann := f.person(t, "Ann")
	require.Len(t, generated, 1)
	assert.Equal(t, generated[0], ann.ID)
}

func TestCreate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		f := setupAdapter(t)
		_, err := f.adapter.DoQuery(ctx, query.NewCreate("people", resource.Single(
			resource.New("people", "", map[string]interface{}{"email": "x@example.com"}, nil),
		)))
		requireAPIError(t, err, http.StatusBadRequest, "Invalid field value.")
	})

	t.Run("duplicate key", func(t *testing.T) {
		fixed := uuid.NewString()
		f := setupAdapter(t, WithIDGenerator(func() string { return fixed }))
		f.person(t, "Ann")

		_, err := f.adapter.DoQuery(ctx, query.NewCreate("people", resource.Single(
			resource.New("people", "", map[string]interface{}{"name": "Bob"}, nil),
		)))
		requireAPIError(t, err, http.StatusConflict, "Duplicate key.")
	})

	t.Run("unknown type", func(t *testing.T) {
		f := setupAdapter(t)
		_, err := f.adapter.DoQuery(ctx, query.NewCreate("spaceships", resource.Single(
			resource.New("spaceships", "", nil, nil),
		)))
		requireAPIError(t, err, http.StatusNotFound, "Unknown resource type.")
	})
}

func TestFind_IDModes(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	ann := f.person(t, "Ann")
	bob := f.person(t, "Bob")

	result, err := f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{Type: "people", IDs: query.ByID(bob.ID)}))
	require.NoError(t, err)
	require.False(t, result.Primary.IsMany())
	assert.Equal(t, bob.ID, result.Primary.Resource().ID)

	result, err = f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{Type: "people", IDs: query.ByIDs(ann.ID)}))
	require.NoError(t, err)
	require.True(t, result.Primary.IsMany())
	assert.Equal(t, []string{ann.ID}, result.Primary.Collection().IDs())

	result, err = f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{Type: "people", IDs: query.ByIDs()}))
	require.NoError(t, err)
	assert.True(t, result.Primary.IsMany())
	assert.Empty(t, result.Primary.Collection())

	result, err = f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{Type: "people"}))
	require.NoError(t, err)
	assert.Equal(t, []string{ann.ID, bob.ID}, result.Primary.Collection().IDs())

	_, err = f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{Type: "people", IDs: query.ByIDs(ann.ID, "not-an-id")}))
	requireAPIError(t, err, http.StatusBadRequest, "Invalid ID.")

	_, err = f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{Type: "people", IDs: query.ByID("not-an-id")}))
	requireAPIError(t, err, http.StatusNotFound, "No matching resource found.")

	_, err = f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{Type: "people", IDs: query.ByID(uuid.NewString())}))
	requireAPIError(t, err, http.StatusNotFound, "No matching resource found.")
}

func TestFind_EmptyCollection(t *testing.T) {
	f := setupAdapter(t)

	result, err := f.adapter.DoQuery(context.Background(), query.NewFind(query.FindParams{Type: "people"}))
	require.NoError(t, err)
	assert.True(t, result.Primary.IsMany())
	assert.Empty(t, result.Primary.Collection())
	assert.Nil(t, result.Total)
}

func TestFind_FilterSortPaginate(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	for _, name := range []string{"Eve", "Bob", "Dan", "Ann", "Cat"} {
		f.person(t, name)
	}
	f.create(t, resource.New("people", "", map[string]interface{}{"name": "Bob", "email": "bob2@example.com"}, nil))

	names := func(result *Result) []string {
		var out []string
		for _, r := range result.Primary.Collection() {
			out = append(out, r.Attributes["name"].(string))
		}
		return out
	}

	result, err := f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{
		Type:   "people",
		Sort:   []query.SortField{query.ParseSortField("name")},
		Offset: intPtr(1),
		Limit:  intPtr(2),
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "Bob"}, names(result))
	require.NotNil(t, result.Total)
	assert.Equal(t, 6, *result.Total)

	result, err = f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{
		Type:    "people",
		Filters: map[string]string{"name": "Bob"},
		Limit:   intPtr(1),
	}))
	require.NoError(t, err)
	assert.Len(t, result.Primary.Collection(), 1)
	require.NotNil(t, result.Total)
	assert.Equal(t, 2, *result.Total)

	result, err = f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{
		Type: "people",
		Sort: []query.SortField{query.ParseSortField("-name")},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Eve", "Dan", "Cat", "Bob", "Bob", "Ann"}, names(result))
	assert.Nil(t, result.Total)
}

func TestFind_InvalidParameters(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)

	tests := []struct {
		name   string
		params query.FindParams
		status int
		title  string
	}{
		{"unknown sort", query.FindParams{Type: "people", Sort: []query.SortField{{Field: "height"}}}, http.StatusBadRequest, "Invalid sort field."},
		{"unknown filter", query.FindParams{Type: "people", Filters: map[string]string{"height": "2"}}, http.StatusBadRequest, "Invalid filter field."},
		{"unknown include", query.FindParams{Type: "organizations", Include: []string{"name"}}, http.StatusBadRequest, "Invalid include path."},
		{"nested include", query.FindParams{Type: "organizations", Include: []string{"liaisons.friends"}}, http.StatusNotImplemented, "Multi-level include paths aren't yet supported."},
		{"unknown type", query.FindParams{Type: "spaceships"}, http.StatusNotFound, "Unknown resource type."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.adapter.DoQuery(ctx, query.NewFind(tt.params))
			requireAPIError(t, err, tt.status, tt.title)
		})
	}
}

func TestFind_Include(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	ann := f.person(t, "Ann")
	bob := f.person(t, "Bob")
	f.organization(t, "organizations", "Acme", ann.ID, bob.ID)
	f.organization(t, "schools", "High", ann.ID)

	result, err := f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{
		Type:    "organizations",
		Include: []string{"liaisons"},
	}))
	require.NoError(t, err)

	primary := result.Primary.Collection()
	require.Len(t, primary, 2)
	assert.Equal(t, "organizations", primary[0].Type)
	assert.Equal(t, "schools", primary[1].Type)
	assert.Equal(t, []string{ann.ID, bob.ID}, primary[0].Relationships["liaisons"].Linkage.IDs())

	// Duplicates across primary resources are kept.
	assert.Equal(t, []string{ann.ID, bob.ID, ann.ID}, result.Included.IDs())
	assert.Equal(t, "people", result.Included[0].Type)
	assert.Equal(t, "Ann", result.Included[0].Attributes["name"])
}

func TestFind_FieldSelection(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	ann := f.person(t, "Ann")
	f.organization(t, "organizations", "Acme", ann.ID)

	result, err := f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{
		Type:    "organizations",
		Fields:  map[string][]string{"organizations": {"name", "missing"}, "people": {"email"}},
		Include: []string{"liaisons"},
	}))
	require.NoError(t, err)

	org := result.Primary.Collection()[0]
	assert.Equal(t, map[string]interface{}{"name": "Acme"}, org.Attributes)
	assert.Empty(t, org.Relationships)

	require.Len(t, result.Included, 1)
	assert.Empty(t, result.Included[0].Attributes)
}

func TestFind_LinkageShapeFollowsSchema(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	school := f.create(t, resource.New("schools", "", map[string]interface{}{"name": "High"}, nil))

	result, err := f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{Type: "schools", IDs: query.ByID(school.ID)}))
	require.NoError(t, err)
	r := result.Primary.Resource()

	principal := r.Relationships["principal"].Linkage
	assert.False(t, principal.IsToMany())
	assert.Nil(t, principal.One())

	liaisons := r.Relationships["liaisons"].Linkage
	assert.True(t, liaisons.IsToMany())
	assert.NotNil(t, liaisons.Many())
	assert.Empty(t, liaisons.Many())
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	ann := f.person(t, "Ann")
	org := f.create(t, resource.New("organizations", "", map[string]interface{}{"name": "Acme", "kind": "private"}, nil))

	patch := resource.New("organizations", org.ID, map[string]interface{}{"name": "Acme Inc"}, map[string]resource.Relationship{
		"liaisons": resource.NewRelationship(resource.ToMany([]*resource.Identifier{{Type: "people", ID: ann.ID}})),
	})
	result, err := f.adapter.DoQuery(ctx, query.NewUpdate("organizations", resource.Single(patch)))
	require.NoError(t, err)

	updated := result.Primary.Resource()
	assert.Equal(t, "Acme Inc", updated.Attributes["name"])
	assert.Equal(t, "private", updated.Attributes["kind"], "defaults are never written by an update")
	assert.Equal(t, []string{ann.ID}, updated.Relationships["liaisons"].Linkage.IDs())
}

func TestUpdate_Errors(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	org := f.organization(t, "organizations", "Acme")

	tests := []struct {
		name   string
		patch  *resource.Resource
		status int
		title  string
	}{
		{"missing", resource.New("organizations", uuid.NewString(), map[string]interface{}{"name": "X"}, nil), http.StatusNotFound, "No matching resource found."},
		{"malformed id", resource.New("organizations", "nope", map[string]interface{}{"name": "X"}, nil), http.StatusNotFound, "No matching resource found."},
		{"invalid value", resource.New("organizations", org.ID, map[string]interface{}{"kind": "secret"}, nil), http.StatusBadRequest, "Invalid field value."},
		{"type change", resource.New("schools", org.ID, map[string]interface{}{"name": "X"}, nil), http.StatusNotFound, "No matching resource found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.adapter.DoQuery(ctx, query.NewUpdate("organizations", resource.Single(tt.patch)))
			requireAPIError(t, err, tt.status, tt.title)
		})
	}

	result, err := f.adapter.DoQuery(ctx, query.NewFind(query.FindParams{Type: "organizations", IDs: query.ByID(org.ID)}))
	require.NoError(t, err)
	assert.Equal(t, "Acme", result.Primary.Resource().Attributes["name"])
	assert.Equal(t, "public", result.Primary.Resource().Attributes["kind"])
}

func TestUpdate_Many(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	ann := f.person(t, "Ann")
	bob := f.person(t, "Bob")

	result, err := f.adapter.DoQuery(ctx, query.NewUpdate("people", resource.Many(resource.Collection{
		resource.New("people", ann.ID, map[string]interface{}{"email": "ann@example.com"}, nil),
		resource.New("people", bob.ID, map[string]interface{}{"email": "bob@example.com"}, nil),
	})))
	require.NoError(t, err)
	require.True(t, result.Primary.IsMany())
	require.Len(t, result.Primary.Collection(), 2)
	assert.Equal(t, "Ann", result.Primary.Collection()[0].Attributes["name"])
	assert.Equal(t, "bob@example.com", result.Primary.Collection()[1].Attributes["email"])
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	ann := f.person(t, "Ann")
	bob := f.person(t, "Bob")
	cat := f.person(t, "Cat")

	result, err := f.adapter.DoQuery(ctx, query.NewDelete("people", query.ByID(ann.ID)))
	require.NoError(t, err)
	assert.False(t, result.Primary.IsMany())
	assert.Equal(t, ann.ID, result.Primary.Resource().ID)

	result, err = f.adapter.DoQuery(ctx, query.NewDelete("people", query.ByIDs(bob.ID, cat.ID)))
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID, cat.ID}, result.Primary.Collection().IDs())

	_, err = f.adapter.DoQuery(ctx, query.NewDelete("people", query.ByID(ann.ID)))
	requireAPIError(t, err, http.StatusNotFound, "No matching resource found.")

	_, err = f.adapter.DoQuery(ctx, query.NewDelete("people", query.ByIDs(bob.ID, "bad")))
	requireAPIError(t, err, http.StatusBadRequest, "Invalid ID.")
}

func TestDelete_RequiresIDs(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	before := f.backend.calls.Load()

	for _, ids := range []query.IDFilter{{}, query.ByIDs()} {
		_, err := f.adapter.DoQuery(ctx, query.NewDelete("people", ids))
		requireAPIError(t, err, http.StatusBadRequest, "You must specify some resources to delete.")
	}
	assert.Equal(t, before, f.backend.calls.Load(), "no store calls")
}

func TestRelationships_AddThenRemove(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	ann := f.person(t, "Ann")
	bob := f.person(t, "Bob")
	cat := f.person(t, "Cat")
	org := f.organization(t, "organizations", "Acme", ann.ID)

	linkage := resource.ToMany([]*resource.Identifier{
		{Type: "people", ID: bob.ID},
		{Type: "people", ID: ann.ID},
		{Type: "people", ID: cat.ID},
	})
	params := query.RelationshipParams{Type: "organizations", ID: org.ID, Relationship: "liaisons", Linkage: linkage}

	result, err := f.adapter.DoQuery(ctx, query.NewAddToRelationship(params))
	require.NoError(t, err)
	assert.Equal(t, []string{ann.ID, bob.ID, cat.ID}, result.Primary.Resource().Relationships["liaisons"].Linkage.IDs())

	params.Linkage = resource.ToMany([]*resource.Identifier{{Type: "people", ID: bob.ID}, {Type: "people", ID: cat.ID}})
	result, err = f.adapter.DoQuery(ctx, query.NewRemoveFromRelationship(params))
	require.NoError(t, err)
	assert.Equal(t, []string{ann.ID}, result.Primary.Resource().Relationships["liaisons"].Linkage.IDs())
}

func TestRelationships_Errors(t *testing.T) {
	ctx := context.Background()
	f := setupAdapter(t)
	school := f.organization(t, "schools", "High")
	linkage := resource.ToMany(nil)

	tests := []struct {
		name   string
		params query.RelationshipParams
		status int
		title  string
	}{
		{"unknown relationship", query.RelationshipParams{Type: "schools", ID: school.ID, Relationship: "name", Linkage: linkage}, http.StatusBadRequest, "Invalid relationship name."},
		{"to-one", query.RelationshipParams{Type: "schools", ID: school.ID, Relationship: "principal", Linkage: linkage}, http.StatusBadRequest, "Relationship is not to-many."},
		{"malformed id", query.RelationshipParams{Type: "schools", ID: "nope", Relationship: "liaisons", Linkage: linkage}, http.StatusNotFound, "No matching resource found."},
		{"missing", query.RelationshipParams{Type: "schools", ID: uuid.NewString(), Relationship: "liaisons", Linkage: linkage}, http.StatusNotFound, "No matching resource found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.adapter.DoQuery(ctx, query.NewAddToRelationship(tt.params))
			requireAPIError(t, err, tt.status, tt.title)

			_, err = f.adapter.DoQuery(ctx, query.NewRemoveFromRelationship(tt.params))
			requireAPIError(t, err, tt.status, tt.title)
		})
	}

	_, err := f.adapter.DoQuery(ctx, query.NewAddToRelationship(query.RelationshipParams{
		Type: "schools", ID: school.ID, Relationship: "liaisons",
		Linkage: resource.ToMany([]*resource.Identifier{{Type: "people", ID: "nope"}}),
	}))
	requireAPIError(t, err, http.StatusBadRequest, "Invalid field value.")
}

func TestRegistry(t *testing.T) {
	f := setupAdapter(t)
	registry := f.adapter.Registry()

	assert.Equal(t, []string{"people", "organizations", "schools"}, registry.Types())

	_, err := NewRegistry(registry.Models()[0], registry.Models()[0])
	assert.Error(t, err)

	_, err = NewRegistry(registry.Models()[2])
	assert.Error(t, err, "child without its parent")

	m, err := registry.ForType("schools")
	require.NoError(t, err)
	assert.Equal(t, "School", m.Name())

	_, err = registry.ForType("School")
	assert.Error(t, err)
}
