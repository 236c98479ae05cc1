package web

import (
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/protocol"
)

// CreateProjectRequest represents the request body for creating a new project.
// A snapshot, when given, seeds the project graph.
type CreateProjectRequest struct {
	ID          string           `json:"id"                 validate:"omitempty,uuid4"`
	Name        string           `json:"name"               validate:"required,min=1,max=255"`
	Description string           `json:"description"`
	Snapshot    *models.Snapshot `json:"snapshot,omitempty"`
}

// AddNodeRequest represents the request body for adding a node.
type AddNodeRequest struct {
	Kind   models.NodeKind `json:"kind"   validate:"required"`
	Params map[string]any  `json:"params"`
}

// UpdateNodeRequest carries the parameters to merge into a node.
type UpdateNodeRequest struct {
	Params map[string]any `json:"params" validate:"required"`
}

// ConnectRequest wires an output port to an input port, both as "{node}:{port}".
type ConnectRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// TemplateResponse describes a node kind.
type TemplateResponse struct {
	Kind        models.NodeKind   `json:"kind"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	IDPrefix    string            `json:"id_prefix"`
	Defaults    models.Payload    `json:"defaults"`
	Schema      map[string]any    `json:"schema"`
	Inputs      []models.PortSpec `json:"inputs"`
	Outputs     []models.PortSpec `json:"outputs"`
}

// TransformTemplateResponse renders a template with the ports of its default parameters.
func TransformTemplateResponse(t protocol.NodeTemplate) TemplateResponse {
	defaults := t.Defaults()

	return TemplateResponse{
		Kind:        t.Kind(),
		Name:        t.Name(),
		Description: t.Description(),
		IDPrefix:    t.IDPrefix(),
		Defaults:    defaults,
		Schema:      t.Schema(),
		Inputs:      t.Inputs(defaults),
		Outputs:     t.Outputs(),
	}
}
