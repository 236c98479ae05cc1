package trunkline

import (
	"testing"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxValue(name string, floor int, current float64, modules ...string) models.Value {
	return models.BoxValue(models.DistributionBoxRecord{Name: name, Floor: floor, TotalCurrent: current, Modules: modules})
}

func TestEvaluate(t *testing.T) {
	outputs, warnings, err := Evaluate(models.TrunkLineParams{Name: "Main", BoxSlots: 4}, map[string]models.Value{
		BoxPort(1): boxValue("AL2", 2, 10),
		BoxPort(2): boxValue("AL1", 1, 5, models.ModuleDualPowerSwitch),
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	diagram := outputs[OutputPortDiagram].Trunk
	require.NotNil(t, diagram)

	assert.Equal(t, []int{1, 2}, diagram.Floors)
	assert.Equal(t, 1, diagram.DualPower)
	assert.InDelta(t, diagram.TotalCurrent, outputs[OutputPortCurrent].Number, 1e-9)

	types := make(map[models.ComponentType]int)
	for _, c := range diagram.Components {
		types[c.Type]++
	}

	assert.Equal(t, 1, types[models.ComponentBus])
	assert.Equal(t, 1, types[models.ComponentBackupSource])
	assert.Equal(t, 2, types[models.ComponentBox])
}

func TestEvaluate_NoBoxes(t *testing.T) {
	outputs, _, err := Evaluate(models.TrunkLineParams{Name: "Main"}, nil)
	require.NoError(t, err)

	diagram := outputs[OutputPortDiagram].Trunk
	require.NotNil(t, diagram)
	assert.Empty(t, diagram.Floors)
	assert.Len(t, diagram.Components, 1)
	assert.Zero(t, outputs[OutputPortCurrent].Number)
}

func TestTemplate_InputsFollowSlots(t *testing.T) {
	tmpl := NewTrunkLineTemplate()

	inputs := tmpl.Inputs(models.TrunkLineParams{BoxSlots: 2})
	require.Len(t, inputs, 2)
	assert.Equal(t, BoxPort(1), inputs[0].Name)
	assert.Equal(t, models.DataBoxRecord, inputs[1].Kind)
}
