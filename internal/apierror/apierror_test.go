package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusNotFound, "No matching resource found.")
	assert.Equal(t, "404 No matching resource found.", err.Error())

	detailed := err.WithDetail("posts 42")
	assert.Equal(t, "404 No matching resource found.: posts 42", detailed.Error())
	assert.Empty(t, err.Detail, "WithDetail copies")

	assert.Equal(t, "missing", err.WithCode("missing").Code)
}

func TestNormalize(t *testing.T) {
	ve := &docstore.ValidationError{Model: "Person"}
	ve.Add("name", "required", "Path `name` is required.", nil)
	ve.Add("age", "max", "too old", 200)

	tests := []struct {
		name   string
		err    error
		status int
		title  string
		detail string
	}{
		{
			name:   "validation",
			err:    fmt.Errorf("create: %w", ve),
			status: http.StatusBadRequest,
			title:  "Invalid field value.",
			detail: "name: Path `name` is required.; age: too old",
		},
		{
			name:   "cast",
			err:    fmt.Errorf("%w: age: not a number", docstore.ErrCast),
			status: http.StatusBadRequest,
			title:  "Invalid field value.",
			detail: "cast failed: age: not a number",
		},
		{
			name:   "duplicate",
			err:    fmt.Errorf("%w: people 1", docstore.ErrDuplicateKey),
			status: http.StatusConflict,
			title:  "Duplicate key.",
			detail: "duplicate key: people 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr, ok := As(Normalize(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.title, apiErr.Title)
			assert.Equal(t, tt.detail, apiErr.Detail)
		})
	}
}

func TestNormalize_PassThrough(t *testing.T) {
	assert.NoError(t, Normalize(nil))

	apiErr := New(http.StatusBadRequest, "Invalid ID.")
	assert.Same(t, apiErr, Normalize(apiErr))

	other := errors.New("connection refused")
	assert.Equal(t, other, Normalize(other))

	notFound := fmt.Errorf("%w: people 1", docstore.ErrNotFound)
	assert.Equal(t, notFound, Normalize(notFound))
}
