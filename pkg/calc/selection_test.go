package calc

import (
	"testing"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestSelectBreaker(t *testing.T) {
	tests := []struct {
		current  float64
		expected float64
		ok       bool
	}{
		{0.5, 1, true},
		{1, 1, true},
		{10.35, 16, true},
		{16, 16, true},
		{16.01, 20, true},
		{125, 125, true},
		{130, 125, false},
	}

	for _, tt := range tests {
		rating, ok := SelectBreaker(tt.current)
		assert.Equal(t, tt.expected, rating, "current %v", tt.current)
		assert.Equal(t, tt.ok, ok, "current %v", tt.current)
	}
}

func TestSelectIncoming_AppliesMargin(t *testing.T) {
	// 40 A * 1.2 = 48 A
	rating, ok := SelectIncoming(40)
	assert.True(t, ok)
	assert.Equal(t, 50.0, rating)

	rating, ok = SelectIncoming(600)
	assert.False(t, ok)
	assert.Equal(t, 630.0, rating)
}

func TestSelectCable(t *testing.T) {
	cable := SelectCable(9.41, models.SinglePhase)
	assert.Equal(t, 1.5, cable.PhaseSection)
	assert.Equal(t, 1.5, cable.PESection)
	assert.Equal(t, "2x1.5+PE1.5", cable.Spec)
	assert.False(t, cable.OutOfRange)

	cable = SelectCable(150, models.ThreePhase)
	assert.Equal(t, 50.0, cable.PhaseSection)
	assert.Equal(t, 25.0, cable.PESection)
	assert.Equal(t, "4x50+PE25", cable.Spec)

	cable = SelectCable(500, models.ThreePhase)
	assert.True(t, cable.OutOfRange)
	assert.Equal(t, 240.0, cable.PhaseSection)
	assert.Equal(t, 120.0, cable.PESection)
}

func TestSelectCable_Monotonic(t *testing.T) {
	previous := 0.0

	for current := 0.0; current <= 420; current += 0.5 {
		cable := SelectCable(current, models.SinglePhase)
		assert.GreaterOrEqual(t, cable.PhaseSection, previous)

		previous = cable.PhaseSection
	}
}

func TestProtectiveSection(t *testing.T) {
	assert.Equal(t, 16.0, ProtectiveSection(16))
	assert.Equal(t, 16.0, ProtectiveSection(35))
	assert.Equal(t, 70.0, ProtectiveSection(150))
}
