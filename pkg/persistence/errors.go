package persistence

import (
	"errors"
	"fmt"
)

// ErrProjectNotFound indicates no project exists for the given identifier.
var ErrProjectNotFound = errors.New("project not found")

// ProjectError wraps project errors with the failing operation.
type ProjectError struct {
	Op        string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	ProjectID string
	Err       error
}

func (e *ProjectError) Error() string {
	return fmt.Sprintf("%s operation failed for project %s: %v", e.Op, e.ProjectID, e.Err)
}

func (e *ProjectError) Unwrap() error {
	return e.Err
}

func NewProjectError(op, projectID string, err error) *ProjectError {
	return &ProjectError{
		Op:        op,
		ProjectID: projectID,
		Err:       err,
	}
}

// IsProjectNotFound checks if an error indicates a project was not found.
func IsProjectNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound)
}
