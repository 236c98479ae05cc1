// Package trunkline provides the trunk line node kind.
package trunkline

import (
	"strconv"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/protocol"
)

const (
	InputPortBoxPrefix = "box_"
	OutputPortCurrent  = "current"
	OutputPortDiagram  = "diagram"

	DefaultBoxSlots = 8
)

// BoxPort returns the name of the n-th (1-based) box slot.
func BoxPort(n int) string {
	return InputPortBoxPrefix + strconv.Itoa(n)
}

// TrunkLineTemplate describes trunk line nodes.
type TrunkLineTemplate struct{}

func (t *TrunkLineTemplate) Kind() models.NodeKind {
	return models.KindTrunkLine
}

func (t *TrunkLineTemplate) Name() string {
	return "Trunk Line"
}

func (t *TrunkLineTemplate) Description() string {
	return "Synthesizes the trunk system diagram from the connected distribution boxes"
}

func (t *TrunkLineTemplate) IDPrefix() string {
	return "ML"
}

func (t *TrunkLineTemplate) Defaults() models.Payload {
	return models.TrunkLineParams{
		Name:     "Trunk",
		BoxSlots: DefaultBoxSlots,
	}
}

func (t *TrunkLineTemplate) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":      "string",
				"maxLength": 128,
			},
			"box_slots": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 64,
			},
		},
		"required": []string{"box_slots"},
	}
}

func (t *TrunkLineTemplate) Inputs(payload models.Payload) []models.PortSpec {
	p, _ := payload.(models.TrunkLineParams)

	slots := p.BoxSlots
	if slots <= 0 {
		slots = DefaultBoxSlots
	}

	ports := make([]models.PortSpec, 0, slots)
	for i := 1; i <= slots; i++ {
		ports = append(ports, models.PortSpec{Name: BoxPort(i), Kind: models.DataBoxRecord})
	}

	return ports
}

func (t *TrunkLineTemplate) Outputs() []models.PortSpec {
	return []models.PortSpec{
		{Name: OutputPortCurrent, Kind: models.DataCurrent, Description: "Sum of the box currents"},
		{Name: OutputPortDiagram, Kind: models.DataTrunkDiagram, Description: "Trunk system diagram"},
	}
}

// NewTrunkLineTemplate creates a new template instance.
func NewTrunkLineTemplate() protocol.NodeTemplate {
	return &TrunkLineTemplate{}
}
