package propagator

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/dukex/voltgraph/pkg/cache"
	"github.com/dukex/voltgraph/pkg/engine"
	"github.com/dukex/voltgraph/pkg/graph"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/nodes/circuit"
	"github.com/dukex/voltgraph/pkg/nodes/distributionbox"
	"github.com/dukex/voltgraph/pkg/nodes/powersource"
	"github.com/dukex/voltgraph/pkg/nodes/trunkline"
	"github.com/dukex/voltgraph/pkg/registry"
	"github.com/dukex/voltgraph/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store      *graph.Store
	cache      *cache.Memory
	states     *engine.StateTable
	propagator *Propagator

	source, lighting, sockets, box, trunk models.NodeID
}

// newFixture wires source -> {lighting, sockets} -> box -> trunk and evaluates it once.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	f := &fixture{
		store:  graph.NewStore(registry.NewDefaultRegistry()),
		cache:  cache.NewMemory(),
		states: engine.NewStateTable(),
	}
	f.propagator = New(logger, f.store, f.cache, f.states)

	add := func(kind models.NodeKind, payload models.Payload) models.NodeID {
		id, err := f.store.AddNode(kind, payload)
		require.NoError(t, err)

		return id
	}
	connect := func(src models.NodeID, out string, dst models.NodeID, in string) {
		require.NoError(t, f.store.AddConnection(models.PortRef{Node: src, Port: out}, models.PortRef{Node: dst, Port: in}))
	}

	f.source = add(models.KindPowerSource, models.PowerSourceParams{Name: "Utility", Voltage: 220, Phase: models.SinglePhase})
	f.lighting = add(models.KindCircuit, models.CircuitParams{Name: "Lighting", RatedPower: 2.2, DemandCoefficient: 0.8, PowerFactor: 0.85, Phase: models.SinglePhase})
	f.sockets = add(models.KindCircuit, models.CircuitParams{Name: "Sockets", RatedPower: 3, DemandCoefficient: 0.7, PowerFactor: 0.9, Phase: models.SinglePhase})
	f.box = add(models.KindDistributionBox, models.DistributionBoxParams{Name: "AL1", Floor: 1, CircuitSlots: 4})
	f.trunk = add(models.KindTrunkLine, models.TrunkLineParams{Name: "Main", BoxSlots: 2})

	connect(f.source, powersource.OutputPortVoltage, f.lighting, circuit.InputPortSupply)
	connect(f.source, powersource.OutputPortVoltage, f.sockets, circuit.InputPortSupply)
	connect(f.lighting, circuit.OutputPortRecord, f.box, distributionbox.CircuitPort(1))
	connect(f.sockets, circuit.OutputPortRecord, f.box, distributionbox.CircuitPort(2))
	connect(f.box, distributionbox.OutputPortRecord, f.trunk, trunkline.BoxPort(1))

	order, err := resolver.TopologicalOrder(f.store)
	require.NoError(t, err)

	report := engine.NewExecutor(f.states, engine.WithLogger(logger)).
		Evaluate(context.Background(), f.store, order, models.AllDirty(), f.cache)
	require.Empty(t, report.Failed())

	f.store.Subscribe(f.propagator.Listen)

	return f
}

func (f *fixture) cached(id models.NodeID) int {
	n := 0

	for ref := range f.cache.Values() {
		if ref.Node == id {
			n++
		}
	}

	return n
}

func TestOnChange_NilChange(t *testing.T) {
	f := newFixture(t)

	dirty := f.propagator.OnChange(nil)

	assert.True(t, dirty.Empty())
	assert.Positive(t, f.cache.Len())
}

func TestOnChange_ParamsUpdateMarksDownstreamClosure(t *testing.T) {
	f := newFixture(t)

	changed, err := f.store.UpdateParams(f.lighting, models.CircuitParams{
		Name: "Lighting", RatedPower: 3.3, DemandCoefficient: 0.8, PowerFactor: 0.85, Phase: models.SinglePhase,
	})
	require.NoError(t, err)
	require.True(t, changed)

	pending := f.propagator.Pending()
	assert.Equal(t, []models.NodeID{f.lighting, f.box, f.trunk}, pending.IDs())

	assert.Zero(t, f.cached(f.lighting))
	assert.Zero(t, f.cached(f.box))
	assert.Zero(t, f.cached(f.trunk))
	assert.Positive(t, f.cached(f.sockets))
	assert.Positive(t, f.cached(f.source))

	assert.Equal(t, models.NodeStale, f.states.Get(f.box))
	assert.Equal(t, models.NodeReady, f.states.Get(f.sockets))
}

func TestOnChange_NoOpUpdateLeavesNothingDirty(t *testing.T) {
	f := newFixture(t)

	changed, err := f.store.UpdateParams(f.sockets, models.CircuitParams{
		Name: "Sockets", RatedPower: 3, DemandCoefficient: 0.7, PowerFactor: 0.9, Phase: models.SinglePhase,
	})
	require.NoError(t, err)
	assert.False(t, changed)

	assert.True(t, f.propagator.Pending().Empty())
}

func TestOnChange_ConnectionRemovedDirtiesTarget(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.RemoveConnection(models.PortRef{Node: f.box, Port: distributionbox.CircuitPort(2)}))

	assert.Equal(t, []models.NodeID{f.box, f.trunk}, f.propagator.Take().IDs())
	assert.True(t, f.propagator.Pending().Empty())
}

func TestOnChange_NodeRemovedPurgesOutputs(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.RemoveNode(f.lighting))

	pending := f.propagator.Pending()
	assert.Equal(t, []models.NodeID{f.box, f.trunk}, pending.IDs())
	assert.False(t, pending.Has(f.lighting))
	assert.Zero(t, f.cached(f.lighting))
}

func TestOnChange_NodeAddedDirtiesOnlyItself(t *testing.T) {
	f := newFixture(t)

	id, err := f.store.AddNode(models.KindPowerSource, models.PowerSourceParams{Name: "Generator", Voltage: 380, Phase: models.ThreePhase})
	require.NoError(t, err)

	assert.Equal(t, []models.NodeID{id}, f.propagator.Pending().IDs())
}

func TestPropagator_MarkAllAndRestore(t *testing.T) {
	f := newFixture(t)

	f.propagator.MarkAll()
	assert.True(t, f.propagator.Pending().All())

	taken := f.propagator.Take()
	assert.True(t, taken.All())
	assert.True(t, f.propagator.Pending().Empty())

	f.propagator.Restore(models.NewDirtySet(f.box))
	assert.Equal(t, []models.NodeID{f.box}, f.propagator.Pending().IDs())
}

func TestClosure_SkipsMissingRoots(t *testing.T) {
	f := newFixture(t)

	dirty := Closure(f.store, f.sockets, 99)

	assert.Equal(t, []models.NodeID{f.sockets, f.box, f.trunk}, dirty.IDs())
}
