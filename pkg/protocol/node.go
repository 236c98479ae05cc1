// Package protocol defines the contracts between node kinds and the engine.
package protocol

import (
	"github.com/dukex/voltgraph/pkg/models"
)

// NodeTemplate describes one node kind: defaults, schema and port layout.
// Templates are read-only configuration; they never hold engine state.
type NodeTemplate interface {
	// Kind returns the node kind this template builds.
	Kind() models.NodeKind

	// Name returns the human-readable name for this node kind
	Name() string

	// Description returns a description of what this node does
	Description() string

	// IDPrefix returns the label prefix used for nodes of this kind (e.g. "CIR").
	IDPrefix() string

	// Defaults returns the default parameters for a new node.
	Defaults() models.Payload

	// Schema returns the JSON schema for the node parameters
	Schema() map[string]any

	// Inputs returns the input ports for a node with the given parameters.
	Inputs(payload models.Payload) []models.PortSpec

	// Outputs returns the output ports of the kind.
	Outputs() []models.PortSpec
}
