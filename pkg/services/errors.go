// Package services provides the business logic between the HTTP surface and
// the persistence and compilation layers.
package services

import (
	"errors"
	"fmt"

	"github.com/docpipe/docpipe/pkg/graph"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrPipelineNil          = errors.New("pipeline cannot be nil")
	ErrPipelineNameRequired = errors.New("pipeline name is required")
	ErrNodesRequired        = errors.New("pipeline must have at least one node")

	// Business logic conflicts (409 Conflict).
	ErrPipelineExists = errors.New("pipeline with this ID already exists")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400. Compilation failures count: they describe a malformed
// definition, not a server fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrPipelineNil) ||
		errors.Is(err, ErrPipelineNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		graph.IsInvalidDefinition(err)
}

// IsConflictError checks if an error is a business logic conflict that should
// return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrPipelineExists)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
