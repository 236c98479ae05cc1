// Package circuit provides the outgoing circuit node kind.
package circuit

import (
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/protocol"
)

const (
	InputPortSupply      = "supply"
	InputPortPowerFactor = "power_factor"
	OutputPortPower      = "power"
	OutputPortCurrent    = "current"
	OutputPortRecord     = "record"
)

// CircuitTemplate describes circuit nodes.
type CircuitTemplate struct{}

func (t *CircuitTemplate) Kind() models.NodeKind {
	return models.KindCircuit
}

func (t *CircuitTemplate) Name() string {
	return "Circuit"
}

func (t *CircuitTemplate) Description() string {
	return "Computes load current, protection rating and cable for one outgoing circuit"
}

func (t *CircuitTemplate) IDPrefix() string {
	return "CIR"
}

func (t *CircuitTemplate) Defaults() models.Payload {
	return models.CircuitParams{
		Name:              "Circuit",
		RatedPower:        1.0,
		DemandCoefficient: 0.8,
		PowerFactor:       0.85,
		Phase:             models.SinglePhase,
	}
}

func (t *CircuitTemplate) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":      "string",
				"maxLength": 128,
			},
			"rated_power": map[string]any{
				"type":        "number",
				"description": "Installed power in kW",
				"minimum":     0,
				"examples":    []float64{1, 2.2, 10},
			},
			"demand_coefficient": map[string]any{
				"type":        "number",
				"description": "Demand coefficient Kx applied to the rated power",
				"minimum":     0,
				"maximum":     1,
			},
			"power_factor": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"phase": map[string]any{
				"type": "string",
				"enum": []string{string(models.SinglePhase), string(models.ThreePhase)},
			},
			"voltage": map[string]any{
				"type":        "number",
				"description": "Supply voltage override, 0 uses the nominal voltage of the phase",
				"minimum":     0,
			},
			"purpose": map[string]any{
				"type": "string",
			},
		},
		"required": []string{"rated_power", "demand_coefficient", "power_factor", "phase"},
	}
}

// Inputs returns the supply and power factor ports. Their defaults come from
// the circuit parameters so an unconnected circuit still evaluates.
func (t *CircuitTemplate) Inputs(payload models.Payload) []models.PortSpec {
	p, _ := payload.(models.CircuitParams)

	supply := models.Scalar(models.DataVoltage, p.EffectiveVoltage())
	pf := models.Scalar(models.DataPowerFactor, p.PowerFactor)

	return []models.PortSpec{
		{Name: InputPortSupply, Kind: models.DataVoltage, Description: "Upstream supply voltage", Default: &supply},
		{Name: InputPortPowerFactor, Kind: models.DataPowerFactor, Description: "Load power factor", Default: &pf},
	}
}

func (t *CircuitTemplate) Outputs() []models.PortSpec {
	return []models.PortSpec{
		{Name: OutputPortPower, Kind: models.DataPower, Description: "Demand-adjusted load in kW"},
		{Name: OutputPortCurrent, Kind: models.DataCurrent, Description: "Load current"},
		{Name: OutputPortRecord, Kind: models.DataCircuitRecord, Description: "Circuit summary"},
	}
}

// NewCircuitTemplate creates a new template instance.
func NewCircuitTemplate() protocol.NodeTemplate {
	return &CircuitTemplate{}
}
