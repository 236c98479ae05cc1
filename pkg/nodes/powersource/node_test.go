package powersource

import (
	"testing"

	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	outputs, warnings, err := Evaluate(models.PowerSourceParams{Name: "Utility", Voltage: 380, Phase: models.ThreePhase}, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, models.Scalar(models.DataVoltage, 380), outputs[OutputPortVoltage])
}

func TestEvaluate_RejectsNonPositiveVoltage(t *testing.T) {
	for _, voltage := range []float64{0, -220} {
		_, _, err := Evaluate(models.PowerSourceParams{Voltage: voltage}, nil)
		assert.ErrorIs(t, err, calc.ErrInvalidParameter)
	}
}

func TestTemplate(t *testing.T) {
	tmpl := NewPowerSourceTemplate()

	assert.Equal(t, models.KindPowerSource, tmpl.Kind())
	assert.Equal(t, "PS", tmpl.IDPrefix())
	assert.Empty(t, tmpl.Inputs(tmpl.Defaults()))
	require.Len(t, tmpl.Outputs(), 1)
	assert.Equal(t, models.DataVoltage, tmpl.Outputs()[0].Kind)
}
