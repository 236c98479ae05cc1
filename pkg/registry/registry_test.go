package registry

import (
	"log/slog"
	"testing"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/nodes/circuit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultTemplates(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultTemplates()

	templates := registry.Templates()
	require.Len(t, templates, len(models.Kinds()))

	for i, kind := range models.Kinds() {
		assert.Equal(t, kind, templates[i].Kind())
	}
}

func TestTemplate_UnknownKind(t *testing.T) {
	registry := NewDefaultRegistry()

	_, err := registry.Template("transformer")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeParams_AppliesDefaults(t *testing.T) {
	registry := NewDefaultRegistry()

	payload, err := registry.DecodeParams(models.KindCircuit, map[string]any{
		"name":        "Lighting",
		"rated_power": 2.2,
	})
	require.NoError(t, err)

	p, ok := payload.(models.CircuitParams)
	require.True(t, ok)
	assert.Equal(t, "Lighting", p.Name)
	assert.InDelta(t, 2.2, p.RatedPower, 1e-9)
	assert.InDelta(t, 0.8, p.DemandCoefficient, 1e-9)
	assert.InDelta(t, 0.85, p.PowerFactor, 1e-9)
	assert.Equal(t, models.SinglePhase, p.Phase)
}

func TestDecodeParams_SchemaViolation(t *testing.T) {
	registry := NewDefaultRegistry()

	_, err := registry.DecodeParams(models.KindCircuit, map[string]any{
		"phase": "two",
	})
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestDecodeParams_StructViolation(t *testing.T) {
	registry := NewDefaultRegistry()

	_, err := registry.DecodeParams(models.KindPowerSource, map[string]any{
		"voltage": 0,
	})
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestDecodeParams_WrongType(t *testing.T) {
	registry := NewDefaultRegistry()

	_, err := registry.DecodeParams(models.KindDistributionBox, map[string]any{
		"floor": "ground",
	})
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestMergeParams_KeepsUntouchedFields(t *testing.T) {
	registry := NewDefaultRegistry()

	current := models.CircuitParams{
		Name:              "Sockets",
		RatedPower:        3,
		DemandCoefficient: 0.7,
		PowerFactor:       0.9,
		Phase:             models.SinglePhase,
	}

	payload, err := registry.MergeParams(current, map[string]any{"rated_power": 4.5})
	require.NoError(t, err)

	p := payload.(models.CircuitParams)
	assert.InDelta(t, 4.5, p.RatedPower, 1e-9)
	assert.Equal(t, "Sockets", p.Name)
	assert.InDelta(t, 0.7, p.DemandCoefficient, 1e-9)
}

func TestPorts_SlotCountFollowsParams(t *testing.T) {
	registry := NewDefaultRegistry()

	inputs, outputs, err := registry.Ports(models.KindDistributionBox, models.DistributionBoxParams{
		Name:         "AL1",
		CircuitSlots: 3,
	})
	require.NoError(t, err)

	require.Len(t, inputs, 4)
	assert.Equal(t, "supply", inputs[0].Name)
	assert.Equal(t, "circuit_1", inputs[1].Name)
	assert.Equal(t, "circuit_3", inputs[3].Name)
	assert.NotEmpty(t, outputs)
}

func TestPorts_CircuitDefaultsFromParams(t *testing.T) {
	registry := NewDefaultRegistry()

	inputs, _, err := registry.Ports(models.KindCircuit, models.CircuitParams{
		Phase:       models.ThreePhase,
		PowerFactor: 0.9,
	})
	require.NoError(t, err)

	var supply *models.PortSpec
	for i := range inputs {
		if inputs[i].Name == circuit.InputPortSupply {
			supply = &inputs[i]
		}
	}

	require.NotNil(t, supply)
	require.NotNil(t, supply.Default)
	assert.InDelta(t, 380.0, supply.Default.Number, 1e-9)
}

func TestLabel(t *testing.T) {
	registry := NewDefaultRegistry()

	assert.Equal(t, "CIR-3", registry.Label(models.KindCircuit, 3))
	assert.Equal(t, "DB-1", registry.Label(models.KindDistributionBox, 1))
	assert.Equal(t, "7", registry.Label("unknown", 7))
}

func TestValidatePayload(t *testing.T) {
	registry := NewDefaultRegistry()

	require.NoError(t, registry.ValidatePayload(models.TrunkLineParams{Name: "Main", BoxSlots: 4}))
	require.ErrorIs(t, registry.ValidatePayload(models.TrunkLineParams{Name: "Main"}), ErrInvalidParams)
}

func TestRegistry_HealthCheck(t *testing.T) {
	empty := NewRegistry(slog.New(slog.DiscardHandler))

	message, ok := empty.HealthCheck()
	assert.False(t, ok)
	assert.Contains(t, message, "power_source")

	message, ok = NewDefaultRegistry().HealthCheck()
	assert.True(t, ok)
	assert.Equal(t, "Registry is healthy", message)
}
