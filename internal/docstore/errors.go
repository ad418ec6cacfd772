package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// Common store error types
var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateKey is returned when an insert collides with an existing id
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrCast is returned when a value cannot be converted to a field's type
	ErrCast = errors.New("cast failed")

	// ErrInvalidPath is returned for malformed or unnavigable field paths
	ErrInvalidPath = errors.New("invalid path")

	// ErrUnknownModel is returned when a model name is not registered
	ErrUnknownModel = errors.New("unknown model")
)

// FieldError describes one failed validator on one path.
type FieldError struct {
	Path    string
	Kind    string // required, enum, max, maxlength, cast
	Message string
	Value   interface{}
}

// ValidationError collects every failed validator of one write.
type ValidationError struct {
	Model  string
	Errors []FieldError
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	if len(ve.Errors) == 1 {
		return fmt.Sprintf("%s validation failed: %s: %s", ve.Model, ve.Errors[0].Path, ve.Errors[0].Message)
	}

	messages := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		messages[i] = fe.Path + ": " + fe.Message
	}
	return fmt.Sprintf("%s validation failed: %s", ve.Model, strings.Join(messages, "; "))
}

// Add records a failed validator.
func (ve *ValidationError) Add(path, kind, message string, value interface{}) {
	ve.Errors = append(ve.Errors, FieldError{Path: path, Kind: kind, Message: message, Value: value})
}

// HasErrors reports whether any validator failed.
func (ve *ValidationError) HasErrors() bool {
	return len(ve.Errors) > 0
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey returns true if the error is ErrDuplicateKey
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsValidation returns true if the error is a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
