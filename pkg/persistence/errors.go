// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrPipelineNotFound indicates no pipeline exists for the given identifier.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrPipelineAlreadyExists indicates a pipeline with the same identifier already exists.
	ErrPipelineAlreadyExists = errors.New("pipeline already exists")

	// ErrRunNotFound indicates no run record exists for the given identifier.
	ErrRunNotFound = errors.New("run not found")
)

// PipelineError wraps pipeline storage errors with operation context.
type PipelineError struct {
	Op         string // Operation being performed (e.g. "PipelineByID", "Save")
	PipelineID string
	Err        error
	Message    string
}

func (e *PipelineError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed for pipeline %s: %s (%v)", e.Op, e.PipelineID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s failed for pipeline %s: %v", e.Op, e.PipelineID, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a PipelineError with the given context.
func NewPipelineError(op, pipelineID string, err error) *PipelineError {
	return &PipelineError{Op: op, PipelineID: pipelineID, Err: err}
}

// IsPipelineNotFound reports whether err is (or wraps) ErrPipelineNotFound.
func IsPipelineNotFound(err error) bool {
	return errors.Is(err, ErrPipelineNotFound)
}

// IsRunNotFound reports whether err is (or wraps) ErrRunNotFound.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}
