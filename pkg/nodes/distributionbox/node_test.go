package distributionbox

import (
	"math"
	"testing"

	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func circuitValue(name string, load float64) models.Value {
	return models.CircuitValue(models.CircuitRecord{Name: name, Load: load})
}

func TestEvaluate_AggregatesInSlotOrder(t *testing.T) {
	p := models.DistributionBoxParams{Name: "AL1", Floor: 2, CircuitSlots: 4}

	outputs, _, err := Evaluate(p, map[string]models.Value{
		CircuitPort(3): circuitValue("Sockets", 1.76),
		CircuitPort(1): circuitValue("Lighting", 1.76),
	}, calc.DefaultBalanceOptions())
	require.NoError(t, err)

	record := outputs[OutputPortRecord].Box
	require.NotNil(t, record)
	require.Len(t, record.Circuits, 2)

	assert.Equal(t, "Lighting", record.Circuits[0].Name)
	assert.Equal(t, "AL1-1", record.Circuits[0].Number)
	assert.Equal(t, "AL1-2", record.Circuits[1].Number)
	assert.Equal(t, 2, record.Floor)

	assert.InDelta(t, 3.52, outputs[OutputPortPower].Number, 1e-9)
	assert.InDelta(t, 3.52*1000/(math.Sqrt(3)*380*0.85), outputs[OutputPortCurrent].Number, 1e-9)
	assert.InDelta(t, models.ThreePhaseVoltage, outputs[OutputPortVoltage].Number, 1e-9)
	assert.Positive(t, outputs[OutputPortIncoming].Number)

	balance := outputs[OutputPortBalance].Balance
	require.NotNil(t, balance)
	assert.Len(t, balance.Assignment, 2)
}

func TestEvaluate_IgnoresSlotsBeyondCapacity(t *testing.T) {
	p := models.DistributionBoxParams{Name: "AL1", CircuitSlots: 1}

	outputs, _, err := Evaluate(p, map[string]models.Value{
		CircuitPort(1): circuitValue("Lighting", 1),
		CircuitPort(2): circuitValue("Sockets", 1),
	}, calc.DefaultBalanceOptions())
	require.NoError(t, err)

	assert.Len(t, outputs[OutputPortRecord].Box.Circuits, 1)
}

func TestEvaluate_EmptyBox(t *testing.T) {
	outputs, _, err := Evaluate(models.DistributionBoxParams{Name: "AL1"}, nil, calc.DefaultBalanceOptions())
	require.NoError(t, err)

	assert.Zero(t, outputs[OutputPortPower].Number)
	assert.Zero(t, outputs[OutputPortCurrent].Number)
	assert.Empty(t, outputs[OutputPortRecord].Box.Circuits)
}

func TestEvaluate_Errors(t *testing.T) {
	p := models.DistributionBoxParams{Name: "AL1"}

	_, _, err := Evaluate(p, map[string]models.Value{
		InputPortSupply: models.Scalar(models.DataVoltage, 0),
	}, calc.DefaultBalanceOptions())
	require.ErrorIs(t, err, calc.ErrInvalidParameter)

	_, _, err = Evaluate(p, map[string]models.Value{
		CircuitPort(1): circuitValue("Broken", -1),
	}, calc.DefaultBalanceOptions())
	require.ErrorIs(t, err, calc.ErrInvalidParameter)
}

func TestTemplate_InputsFollowSlots(t *testing.T) {
	tmpl := NewDistributionBoxTemplate()

	inputs := tmpl.Inputs(models.DistributionBoxParams{CircuitSlots: 3})
	require.Len(t, inputs, 4)
	assert.Equal(t, InputPortSupply, inputs[0].Name)
	assert.Equal(t, CircuitPort(3), inputs[3].Name)

	assert.Len(t, tmpl.Inputs(tmpl.Defaults()), DefaultCircuitSlots+1)
}
