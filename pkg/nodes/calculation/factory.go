// Package calculation provides the standalone selection node kind.
package calculation

import (
	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/protocol"
)

const (
	InputPortCurrent  = "current"
	OutputPortBreaker = "breaker"
	OutputPortCable   = "cable"
)

// CalculationTemplate describes calculation nodes.
type CalculationTemplate struct{}

func (t *CalculationTemplate) Kind() models.NodeKind {
	return models.KindCalculation
}

func (t *CalculationTemplate) Name() string {
	return "Calculation"
}

func (t *CalculationTemplate) Description() string {
	return "Selects a breaker rating and cable cross section for an incoming current"
}

func (t *CalculationTemplate) IDPrefix() string {
	return "CC"
}

func (t *CalculationTemplate) Defaults() models.Payload {
	return models.CalculationParams{
		Name:   "Selection",
		Margin: calc.MarginProtection,
		Phase:  models.ThreePhase,
	}
}

func (t *CalculationTemplate) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":      "string",
				"maxLength": 128,
			},
			"margin": map[string]any{
				"type":        "number",
				"description": "Multiplier applied to the current before the breaker lookup",
				"minimum":     0,
				"default":     calc.MarginProtection,
			},
			"phase": map[string]any{
				"type": "string",
				"enum": []string{string(models.SinglePhase), string(models.ThreePhase)},
			},
		},
		"required": []string{"margin", "phase"},
	}
}

// Inputs declares a required current with no default.
func (t *CalculationTemplate) Inputs(models.Payload) []models.PortSpec {
	return []models.PortSpec{
		{Name: InputPortCurrent, Kind: models.DataCurrent, Required: true, Description: "Current to protect"},
	}
}

func (t *CalculationTemplate) Outputs() []models.PortSpec {
	return []models.PortSpec{
		{Name: OutputPortBreaker, Kind: models.DataBreaker, Description: "Selected breaker rating"},
		{Name: OutputPortCable, Kind: models.DataCrossSection, Description: "Selected phase conductor cross section"},
	}
}

// NewCalculationTemplate creates a new template instance.
func NewCalculationTemplate() protocol.NodeTemplate {
	return &CalculationTemplate{}
}
