// Package powersource provides the power source node kind.
package powersource

import (
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/protocol"
)

const OutputPortVoltage = "voltage"

// PowerSourceTemplate describes power source nodes.
type PowerSourceTemplate struct{}

func (t *PowerSourceTemplate) Kind() models.NodeKind {
	return models.KindPowerSource
}

func (t *PowerSourceTemplate) Name() string {
	return "Power Source"
}

func (t *PowerSourceTemplate) Description() string {
	return "Supplies the nominal line voltage to downstream circuits"
}

func (t *PowerSourceTemplate) IDPrefix() string {
	return "PS"
}

func (t *PowerSourceTemplate) Defaults() models.Payload {
	return models.PowerSourceParams{
		Name:    "Power Source",
		Voltage: models.ThreePhaseVoltage,
		Phase:   models.ThreePhase,
	}
}

func (t *PowerSourceTemplate) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":      "string",
				"maxLength": 128,
			},
			"voltage": map[string]any{
				"type":        "number",
				"description": "Line voltage in volts",
				"minimum":     0,
				"examples":    []float64{220, 380},
			},
			"phase": map[string]any{
				"type": "string",
				"enum": []string{string(models.SinglePhase), string(models.ThreePhase)},
			},
		},
		"required": []string{"voltage", "phase"},
	}
}

func (t *PowerSourceTemplate) Inputs(models.Payload) []models.PortSpec {
	return []models.PortSpec{}
}

func (t *PowerSourceTemplate) Outputs() []models.PortSpec {
	return []models.PortSpec{
		{Name: OutputPortVoltage, Kind: models.DataVoltage, Description: "Supply voltage"},
	}
}

// NewPowerSourceTemplate creates a new template instance.
func NewPowerSourceTemplate() protocol.NodeTemplate {
	return &PowerSourceTemplate{}
}
