package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies task and run failures. Kinds are stable strings so
// they survive serialization into result blobs.
type ErrorKind string

const (
	// ErrKindValidation indicates malformed tool input.
	ErrKindValidation ErrorKind = "validation_error"
	// ErrKindNotFound indicates a referenced document does not exist.
	ErrKindNotFound ErrorKind = "not_found"
	// ErrKindFormat indicates a document of an unrecognized type.
	ErrKindFormat ErrorKind = "format_error"
	// ErrKindIO indicates a document read that kept failing after retries.
	ErrKindIO ErrorKind = "io_error"
	// ErrKindRateLimit indicates an agent's call budget was exhausted while
	// a caller deadline was in force.
	ErrKindRateLimit ErrorKind = "rate_limit_exceeded"
	// ErrKindSchema indicates agent output that failed its output contract.
	ErrKindSchema ErrorKind = "schema_violation"
	// ErrKindUpstream indicates a dependency of the task failed.
	ErrKindUpstream ErrorKind = "upstream_failure"
	// ErrKindCycle indicates a task graph with a circular dependency.
	ErrKindCycle ErrorKind = "cyclic_dependency"
	// ErrKindInternal is the fallback for unclassified failures.
	ErrKindInternal ErrorKind = "internal_error"
)

// TaskError is a classified task failure, carried as data in a TaskResult.
type TaskError struct {
	// Kind is the taxonomy bucket for this failure.
	Kind ErrorKind `json:"kind"`
	// Message is the human-readable detail.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewTaskError builds a TaskError with the given kind and formatted message.
func NewTaskError(kind ErrorKind, format string, args ...interface{}) *TaskError {
	return &TaskError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Classify maps an arbitrary error to its taxonomy kind. A *TaskError keeps
// its own kind; anything else is internal_error.
func Classify(err error) ErrorKind {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ErrKindInternal
}

// AsTaskError converts an error into a *TaskError, wrapping unclassified
// errors as internal_error.
func AsTaskError(err error) *TaskError {
	if err == nil {
		return nil
	}
	var te *TaskError
	if errors.As(err, &te) {
		return te
	}
	return &TaskError{Kind: ErrKindInternal, Message: err.Error()}
}
