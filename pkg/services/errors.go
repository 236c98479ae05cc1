// Package services provides the project service and its error taxonomy.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/voltgraph/pkg/graph"
	"github.com/dukex/voltgraph/pkg/persistence"
	"github.com/dukex/voltgraph/pkg/registry"
	"github.com/dukex/voltgraph/pkg/resolver"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest     = errors.New("invalid request")
	ErrProjectNameMissing = errors.New("project name is required")
	ErrInvalidPort        = errors.New("invalid port reference")
	ErrInvalidNodeID      = errors.New("invalid node id")
	ErrInvalidSnapshot    = errors.New("invalid snapshot")

	// Business Logic Conflicts (409 Conflict).
	ErrProjectExists = errors.New("project already exists")

	// Lookups (404 Not Found).
	ErrValueNotFound = errors.New("value not found")
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

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrProjectNameMissing) ||
		errors.Is(err, ErrInvalidPort) ||
		errors.Is(err, ErrInvalidNodeID) ||
		errors.Is(err, ErrInvalidSnapshot) ||
		errors.Is(err, registry.ErrInvalidParams) ||
		errors.Is(err, registry.ErrUnknownKind) ||
		errors.Is(err, graph.ErrKindMismatch)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrProjectExists) ||
		errors.Is(err, resolver.ErrCycle) ||
		graph.IsRejectedConnection(err)
}

// IsNotFoundError checks if an error refers to a missing project, node, port or value.
func IsNotFoundError(err error) bool {
	return persistence.IsProjectNotFound(err) ||
		graph.IsNotFound(err) ||
		errors.Is(err, ErrValueNotFound)
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

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	return &ServiceError{Op: op, Err: err}
}
