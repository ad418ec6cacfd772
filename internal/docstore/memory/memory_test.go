package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/docstore/engine"
)

func TestBackend_InsertAndList(t *testing.T) {
	ctx := context.Background()
	b := New()

	err := b.Insert(ctx, "posts", []engine.Record{
		{ID: "b", Data: []byte(`{"n":1}`)},
		{ID: "a", Data: []byte(`{"n":2}`)},
	})
	require.NoError(t, err)

	records, err := b.List(ctx, "posts")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].ID)
	assert.Equal(t, "a", records[1].ID)

	empty, err := b.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBackend_InsertDuplicate(t *testing.T) {
	ctx := context.Background()
	b := New()

	require.NoError(t, b.Insert(ctx, "posts", []engine.Record{{ID: "a", Data: []byte(`{}`)}}))

	err := b.Insert(ctx, "posts", []engine.Record{{ID: "c", Data: []byte(`{}`)}, {ID: "a", Data: []byte(`{}`)}})
	assert.True(t, docstore.IsDuplicateKey(err))

	// The failed batch writes nothing.
	_, err = b.Get(ctx, "posts", "c")
	assert.True(t, docstore.IsNotFound(err))
}

func TestBackend_PutKeepsPosition(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.Insert(ctx, "posts", []engine.Record{
		{ID: "a", Data: []byte(`1`)},
		{ID: "b", Data: []byte(`2`)},
	}))

	require.NoError(t, b.Put(ctx, "posts", engine.Record{ID: "a", Data: []byte(`3`)}))

	records, err := b.List(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, []byte(`3`), records[0].Data)

	err = b.Put(ctx, "posts", engine.Record{ID: "zzz", Data: []byte(`1`)})
	assert.True(t, docstore.IsNotFound(err))
}

func TestBackend_Delete(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.Insert(ctx, "posts", []engine.Record{
		{ID: "a", Data: []byte(`1`)},
		{ID: "b", Data: []byte(`2`)},
	}))

	require.NoError(t, b.Delete(ctx, "posts", "a"))

	records, err := b.List(ctx, "posts")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].ID)

	assert.True(t, docstore.IsNotFound(b.Delete(ctx, "posts", "a")))
	assert.True(t, docstore.IsNotFound(b.Delete(ctx, "users", "a")))
}
