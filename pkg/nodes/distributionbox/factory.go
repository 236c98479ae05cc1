// Package distributionbox provides the distribution box node kind.
package distributionbox

import (
	"strconv"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/protocol"
)

const (
	InputPortSupply        = "supply"
	InputPortCircuitPrefix = "circuit_"
	OutputPortVoltage      = "voltage"
	OutputPortPower        = "power"
	OutputPortCurrent      = "current"
	OutputPortIncoming     = "incoming"
	OutputPortBalance      = "balance"
	OutputPortRecord       = "record"

	DefaultCircuitSlots = 8
)

// CircuitPort returns the name of the n-th (1-based) circuit slot.
func CircuitPort(n int) string {
	return InputPortCircuitPrefix + strconv.Itoa(n)
}

// DistributionBoxTemplate describes distribution box nodes.
type DistributionBoxTemplate struct{}

func (t *DistributionBoxTemplate) Kind() models.NodeKind {
	return models.KindDistributionBox
}

func (t *DistributionBoxTemplate) Name() string {
	return "Distribution Box"
}

func (t *DistributionBoxTemplate) Description() string {
	return "Aggregates outgoing circuits, sizes the incoming device and balances the three phases"
}

func (t *DistributionBoxTemplate) IDPrefix() string {
	return "DB"
}

func (t *DistributionBoxTemplate) Defaults() models.Payload {
	return models.DistributionBoxParams{
		Name:         "AL",
		Floor:        1,
		Modules:      []string{},
		CircuitSlots: DefaultCircuitSlots,
	}
}

func (t *DistributionBoxTemplate) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":      "string",
				"maxLength": 128,
				"examples":  []string{"1AL", "B1AP"},
			},
			"floor": map[string]any{
				"type":        "integer",
				"description": "Floor index, negative for basements",
			},
			"modules": map[string]any{
				"type":        "array",
				"description": "Module flags such as dual_power_switch or fire_load",
				"items": map[string]any{
					"type": "string",
				},
				"uniqueItems": true,
			},
			"circuit_slots": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 32,
			},
		},
		"required": []string{"name", "floor", "circuit_slots"},
	}
}

func (t *DistributionBoxTemplate) Inputs(payload models.Payload) []models.PortSpec {
	p, _ := payload.(models.DistributionBoxParams)

	slots := p.CircuitSlots
	if slots <= 0 {
		slots = DefaultCircuitSlots
	}

	supply := models.Scalar(models.DataVoltage, models.ThreePhaseVoltage)

	ports := make([]models.PortSpec, 0, slots+1)
	ports = append(ports, models.PortSpec{Name: InputPortSupply, Kind: models.DataVoltage, Description: "Incoming supply voltage", Default: &supply})

	for i := 1; i <= slots; i++ {
		ports = append(ports, models.PortSpec{Name: CircuitPort(i), Kind: models.DataCircuitRecord})
	}

	return ports
}

func (t *DistributionBoxTemplate) Outputs() []models.PortSpec {
	return []models.PortSpec{
		{Name: OutputPortVoltage, Kind: models.DataVoltage, Description: "Supply voltage passed to outgoing circuits"},
		{Name: OutputPortPower, Kind: models.DataPower, Description: "Total load in kW"},
		{Name: OutputPortCurrent, Kind: models.DataCurrent, Description: "Total three-phase current"},
		{Name: OutputPortIncoming, Kind: models.DataBreaker, Description: "Incoming device rating"},
		{Name: OutputPortBalance, Kind: models.DataPhaseBalance, Description: "Phase assignment of the circuits"},
		{Name: OutputPortRecord, Kind: models.DataBoxRecord, Description: "Distribution box summary"},
	}
}

// NewDistributionBoxTemplate creates a new template instance.
func NewDistributionBoxTemplate() protocol.NodeTemplate {
	return &DistributionBoxTemplate{}
}
