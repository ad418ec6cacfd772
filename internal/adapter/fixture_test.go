package adapter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/docstore/engine"
	"github.com/ChangJoo-Park/json-api/internal/docstore/memory"
	"github.com/ChangJoo-Park/json-api/internal/query"
	"github.com/ChangJoo-Park/json-api/internal/resource"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

// countingBackend counts every backend call.
type countingBackend struct {
	engine.Backend
	calls atomic.Int64
}

func (b *countingBackend) List(ctx context.Context, collection string) ([]engine.Record, error) {
	b.calls.Add(1)
	return b.Backend.List(ctx, collection)
}

func (b *countingBackend) Get(ctx context.Context, collection, id string) (engine.Record, error) {
	b.calls.Add(1)
	return b.Backend.Get(ctx, collection, id)
}

func (b *countingBackend) Insert(ctx context.Context, collection string, records []engine.Record) error {
	b.calls.Add(1)
	return b.Backend.Insert(ctx, collection, records)
}

func (b *countingBackend) Put(ctx context.Context, collection string, rec engine.Record) error {
	b.calls.Add(1)
	return b.Backend.Put(ctx, collection, rec)
}

func (b *countingBackend) Delete(ctx context.Context, collection, id string) error {
	b.calls.Add(1)
	return b.Backend.Delete(ctx, collection, id)
}

type fixture struct {
	adapter *Adapter
	store   *engine.Store
	backend *countingBackend
}

func setupAdapter(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	backend := &countingBackend{Backend: memory.New()}
	store := engine.New(backend, engine.WithClock(func() time.Time { return fixedNow }))

	_, err := store.Define("Person", docstore.NewSchema(
		&docstore.Field{Path: docstore.Path{"name"}, Type: docstore.TypeString, Required: true},
		&docstore.Field{Path: docstore.Path{"email"}, Type: docstore.TypeString},
	))
	require.NoError(t, err)

	maxLen := 30
	org, err := store.Define("Organization", docstore.NewSchema(
		&docstore.Field{Path: docstore.Path{"name"}, Type: docstore.TypeString, Required: true, MaxLength: &maxLen},
		&docstore.Field{Path: docstore.Path{"liaisons"}, Type: docstore.TypeObjectID, Array: true, Ref: "Person"},
		&docstore.Field{Path: docstore.Path{"kind"}, Type: docstore.TypeString, Enum: []string{"public", "private"}, Default: "public"},
		&docstore.Field{Path: docstore.Path{"dateEstablished"}, Type: docstore.TypeDate, DefaultFunc: store.Now()},
		&docstore.Field{
			Path:       docstore.Path{"address", "city"},
			Type:       docstore.TypeString,
			Validation: map[string]interface{}{"format": "city name"},
		},
	))
	require.NoError(t, err)
	org.Schema().Virtuals = append(org.Schema().Virtuals, &docstore.Virtual{
		Name: "displayName",
		Get: func(values map[string]interface{}) interface{} {
			name, _ := values["name"].(string)
			return "The " + name
		},
	})

	_, err = store.DefineDiscriminator("Organization", "School", &docstore.Schema{Fields: []*docstore.Field{
		{Path: docstore.Path{"isCollege"}, Type: docstore.TypeBoolean, Default: false},
		{Path: docstore.Path{"principal"}, Type: docstore.TypeObjectID, Ref: "Person"},
	}})
	require.NoError(t, err)

	var models []docstore.Model
	for _, m := range store.Models() {
		models = append(models, m)
	}
	registry, err := NewRegistry(models...)
	require.NoError(t, err)

	return &fixture{
		adapter: New(registry, opts...),
		store:   store,
		backend: backend,
	}
}

func (f *fixture) create(t *testing.T, r *resource.Resource) *resource.Resource {
	t.Helper()
	result, err := f.adapter.DoQuery(context.Background(), query.NewCreate(r.Type, resource.Single(r)))
	require.NoError(t, err)
	require.NotNil(t, result.Primary.Resource())
	return result.Primary.Resource()
}

func (f *fixture) person(t *testing.T, name string) *resource.Resource {
	t.Helper()
	return f.create(t, resource.New("people", "", map[string]interface{}{"name": name}, nil))
}

func (f *fixture) organization(t *testing.T, typ, name string, liaisons ...string) *resource.Resource {
	t.Helper()
	ids := make([]*resource.Identifier, len(liaisons))
	for i, id := range liaisons {
		ids[i] = &resource.Identifier{Type: "people", ID: id}
	}
	return f.create(t, resource.New(typ, "", map[string]interface{}{"name": name}, map[string]resource.Relationship{
		"liaisons": resource.NewRelationship(resource.ToMany(ids)),
	}))
}

func intPtr(n int) *int { return &n }
