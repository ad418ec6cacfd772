// Package apierror defines the error type returned for expected request
// failures and the normalization of store errors into it.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
)

// APIError is an error that maps onto a JSON:API error object. Empty Code
// and Detail are undefined.
type APIError struct {
	Status int
	Code   string
	Title  string
	Detail string
}

// New creates an APIError
func New(status int, title string) *APIError {
	return &APIError{Status: status, Title: title}
}

// WithDetail returns a copy of e with the given detail
func (e *APIError) WithDetail(detail string) *APIError {
	out := *e
	out.Detail = detail
	return &out
}

// WithCode returns a copy of e with the given code
func (e *APIError) WithCode(code string) *APIError {
	out := *e
	out.Code = code
	return &out
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Title)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// As returns the APIError in err's chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Normalize converts known store errors to APIErrors. APIErrors pass
// through and anything else is returned unchanged.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}

	var ve *docstore.ValidationError
	if errors.As(err, &ve) {
		return &APIError{
			Status: http.StatusBadRequest,
			Code:   "validation_error",
			Title:  "Invalid field value.",
			Detail: validationDetail(ve),
		}
	}

	switch {
	case errors.Is(err, docstore.ErrCast):
		return &APIError{
			Status: http.StatusBadRequest,
			Code:   "cast_error",
			Title:  "Invalid field value.",
			Detail: err.Error(),
		}
	case errors.Is(err, docstore.ErrDuplicateKey):
		return &APIError{
			Status: http.StatusConflict,
			Code:   "duplicate_key",
			Title:  "Duplicate key.",
			Detail: err.Error(),
		}
	}
	return err
}

func validationDetail(ve *docstore.ValidationError) string {
	if len(ve.Errors) == 0 {
		return ve.Error()
	}
	messages := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		messages[i] = fe.Path + ": " + fe.Message
	}
	return strings.Join(messages, "; ")
}
