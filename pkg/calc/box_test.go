package calc

import (
	"testing"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateBox(t *testing.T) {
	circuits := []models.CircuitRecord{
		{Name: "lighting", Load: 10},
		{Name: "sockets", Load: 10},
		{Name: "fan", Load: 1},
	}

	totals, err := AggregateBox(circuits)
	require.NoError(t, err)

	assert.InDelta(t, 21.0, totals.TotalPower, 1e-9)
	assert.InDelta(t, 37.54, totals.TotalCurrent, 0.01)
	assert.Equal(t, 50.0, totals.IncomingRating)
	assert.False(t, totals.OutOfRange)
}

func TestAggregateBox_Empty(t *testing.T) {
	totals, err := AggregateBox(nil)
	require.NoError(t, err)

	assert.Zero(t, totals.TotalPower)
	assert.Zero(t, totals.TotalCurrent)
	assert.Equal(t, 6.0, totals.IncomingRating)
}

func TestAggregateBox_OutOfRange(t *testing.T) {
	totals, err := AggregateBox([]models.CircuitRecord{{Name: "chiller", Load: 500}})
	require.NoError(t, err)

	assert.True(t, totals.OutOfRange)
	assert.Equal(t, 630.0, totals.IncomingRating)
}

func TestAggregateBox_NegativeLoad(t *testing.T) {
	_, err := AggregateBox([]models.CircuitRecord{{Name: "broken", Load: -1}})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestNumberCircuits(t *testing.T) {
	circuits := make([]models.CircuitRecord, 3)
	NumberCircuits("1AL", circuits)

	assert.Equal(t, "1AL-1", circuits[0].Number)
	assert.Equal(t, "1AL-2", circuits[1].Number)
	assert.Equal(t, "1AL-3", circuits[2].Number)
}
