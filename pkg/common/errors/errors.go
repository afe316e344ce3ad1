// Package errors defines the shared error taxonomy for the shardfeed library.
package errors

import (
	"errors"
	"fmt"
)

// Error categories used across the shardfeed library

var (
	// ErrConfiguration indicates an invalid pipeline configuration
	// (bad batch-size divisibility, malformed pipeline string, unknown
	// transform name). Surfaced at construction, never retried.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMetadata indicates a dataset metadata failure (split not found,
	// multi-block split requested). Fatal to pipeline construction.
	ErrMetadata = errors.New("metadata error")

	// ErrTransformRuntime indicates a transform failed while the stream
	// was being iterated. Surfaced at the offending batch, never retried.
	ErrTransformRuntime = errors.New("transform runtime error")
)

// IsConfiguration returns true if the error belongs to the configuration
// category of the taxonomy.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsMetadata returns true if the error belongs to the metadata category.
func IsMetadata(err error) bool {
	return errors.Is(err, ErrMetadata)
}

// IsTransformRuntime returns true if the error was raised by a transform
// during stream iteration.
func IsTransformRuntime(err error) bool {
	return errors.Is(err, ErrTransformRuntime)
}

// ValidationError describes a rejected configuration field.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint to the error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s (%v): %s", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	return msg
}

// Is makes ValidationError match ErrConfiguration with errors.Is.
func (e *ValidationError) Is(target error) bool {
	return target == ErrConfiguration
}
