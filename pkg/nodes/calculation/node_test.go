package calculation

import (
	"testing"

	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params() models.CalculationParams {
	return models.CalculationParams{Name: "Selection", Margin: calc.MarginProtection, Phase: models.ThreePhase}
}

func current(a float64) map[string]models.Value {
	return map[string]models.Value{InputPortCurrent: models.Scalar(models.DataCurrent, a)}
}

func TestEvaluate(t *testing.T) {
	outputs, warnings, err := Evaluate(params(), current(10))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	rating, fits := calc.SelectBreaker(10 * calc.MarginProtection)
	require.True(t, fits)

	assert.Equal(t, models.Scalar(models.DataBreaker, rating), outputs[OutputPortBreaker])
	assert.Equal(t, calc.SelectCable(10, models.ThreePhase).PhaseSection, outputs[OutputPortCable].Number)
}

func TestEvaluate_OutOfRangeWarns(t *testing.T) {
	outputs, warnings, err := Evaluate(params(), current(10000))
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], calc.ErrOutOfRange.Error())
	assert.Positive(t, outputs[OutputPortBreaker].Number)
}

func TestEvaluate_Errors(t *testing.T) {
	_, _, err := Evaluate(params(), nil)
	require.ErrorIs(t, err, calc.ErrInvalidParameter)

	_, _, err = Evaluate(params(), current(-1))
	require.ErrorIs(t, err, calc.ErrInvalidParameter)

	p := params()
	p.Margin = 0
	_, _, err = Evaluate(p, current(10))
	require.ErrorIs(t, err, calc.ErrInvalidParameter)
}

func TestTemplate_RequiresCurrent(t *testing.T) {
	inputs := NewCalculationTemplate().Inputs(params())
	require.Len(t, inputs, 1)
	assert.True(t, inputs[0].Required)
	assert.Nil(t, inputs[0].Default)
}
