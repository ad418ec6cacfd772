package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("address.city")
	require.NoError(t, err)
	assert.Equal(t, Path{"address", "city"}, p)
	assert.Equal(t, "address.city", p.String())

	for _, bad := range []string{"", ".", "a..b", "a."} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestMustParsePath_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParsePath("a..b") })
}

func TestGetPath(t *testing.T) {
	doc := map[string]interface{}{
		"name":    "Lincoln",
		"address": map[string]interface{}{"city": "Springfield"},
		"tags":    []interface{}{"a"},
	}

	v, ok := GetPath(doc, Path{"address", "city"})
	assert.True(t, ok)
	assert.Equal(t, "Springfield", v)

	_, ok = GetPath(doc, Path{"address", "zip"})
	assert.False(t, ok)

	_, ok = GetPath(doc, Path{"name", "first"})
	assert.False(t, ok)

	_, ok = GetPath(doc, nil)
	assert.False(t, ok)
}

func TestSetPath(t *testing.T) {
	doc := map[string]interface{}{"name": "Lincoln"}

	require.NoError(t, SetPath(doc, Path{"address", "city"}, "Springfield"))
	assert.Equal(t, map[string]interface{}{"city": "Springfield"}, doc["address"])

	err := SetPath(doc, Path{"name", "first"}, "x")
	assert.ErrorIs(t, err, ErrInvalidPath)

	assert.ErrorIs(t, SetPath(doc, nil, 1), ErrInvalidPath)
}

func TestDeletePath(t *testing.T) {
	doc := map[string]interface{}{
		"address": map[string]interface{}{"city": "Springfield", "zip": "1"},
	}

	assert.True(t, DeletePath(doc, Path{"address", "city"}))
	assert.Equal(t, map[string]interface{}{"zip": "1"}, doc["address"])
	assert.False(t, DeletePath(doc, Path{"address", "city"}))
	assert.False(t, DeletePath(doc, Path{"missing", "x"}))
	assert.False(t, DeletePath(doc, nil))
}
