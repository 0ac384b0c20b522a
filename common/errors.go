// Package common holds the errors shared by every layer of the service.
package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Storage and access errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
	// ErrConflict reports a write against a record version that is no longer current.
	ErrConflict = errors.New("record was modified concurrently")

	// ErrInvalidCredentials deliberately covers unknown email, wrong password, wrong role and
	// blocked accounts alike.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError maps a field name to the message shown next to it.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for field, keeping the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns nil when there is nothing to report, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err carries field validation messages.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
