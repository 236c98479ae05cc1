package graph

import (
	"errors"
	"fmt"

	"github.com/dukex/voltgraph/pkg/models"
)

// Structural errors returned synchronously by mutating operations.
// The graph is left unchanged whenever one of them is returned.
var (
	ErrNotFound          = errors.New("node not found")
	ErrPortNotFound      = errors.New("port not found")
	ErrTypeMismatch      = errors.New("port data kinds differ")
	ErrInputAlreadyBound = errors.New("input already bound")
	ErrNotConnected      = errors.New("input not connected")
	ErrSelfConnection    = errors.New("node cannot feed itself")
	ErrKindMismatch      = errors.New("payload does not match node kind")
)

// PortError wraps a structural error with the ports involved.
type PortError struct {
	Op     string
	Source *models.PortRef
	Target models.PortRef
	Err    error
}

func (e *PortError) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Source, e.Target, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *PortError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err refers to a missing node or port.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrPortNotFound) || errors.Is(err, ErrNotConnected)
}

// IsRejectedConnection reports whether a connection attempt was refused.
func IsRejectedConnection(err error) bool {
	return errors.Is(err, ErrTypeMismatch) || errors.Is(err, ErrInputAlreadyBound) || errors.Is(err, ErrSelfConnection)
}

func nodeNotFound(id models.NodeID) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
