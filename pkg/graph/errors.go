// Package graph implements the workflow graph owned by a compiled pipeline:
// node and edge bookkeeping, structural validation and topological ordering.
package graph

import (
	"errors"
	"fmt"
)

// InvalidDefinitionError is the single taxonomy for structural graph errors:
// empty graph, missing source or sink, dangling edge endpoint, cycle. These
// are deterministic authoring errors, never transient, and are surfaced
// synchronously to the caller.
type InvalidDefinitionError struct {
	Message string
}

func (e *InvalidDefinitionError) Error() string {
	return "invalid definition: " + e.Message
}

// NewInvalidDefinition builds a definition error from a format string. The
// compiler reuses it so slot-resolution and graph failures share one taxonomy.
func NewInvalidDefinition(format string, args ...any) error {
	return &InvalidDefinitionError{Message: fmt.Sprintf(format, args...)}
}

func invalidDefinition(format string, args ...any) error {
	return NewInvalidDefinition(format, args...)
}

// IsInvalidDefinition reports whether err is (or wraps) a definition error.
func IsInvalidDefinition(err error) bool {
	var target *InvalidDefinitionError

	return errors.As(err, &target)
}
