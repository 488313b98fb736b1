package payroll

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an employee, pay person or leave entry
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is the sentinel wrapped by ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateSnapshot is returned when a period was already snapshotted.
	ErrDuplicateSnapshot = errors.New("snapshot already exists for period")
)

// FieldErrors maps a form field name to a human-readable message.
type FieldErrors map[string]string

// ValidationError carries the per-field messages for a rejected form.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError is what stores return for unknown IDs.
func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// AsValidationError returns the ValidationError in err's chain, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
