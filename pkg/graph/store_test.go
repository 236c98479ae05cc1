package graph_test

import (
	"log/slog"
	"testing"

	"github.com/dukex/voltgraph/pkg/graph"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/nodes/calculation"
	"github.com/dukex/voltgraph/pkg/nodes/circuit"
	"github.com/dukex/voltgraph/pkg/nodes/distributionbox"
	"github.com/dukex/voltgraph/pkg/nodes/powersource"
	"github.com/dukex/voltgraph/pkg/registry"
	"github.com/dukex/voltgraph/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(id models.NodeID, port string) models.PortRef {
	return models.PortRef{Node: id, Port: port}
}

type recorder struct {
	changes []models.Change
}

func (r *recorder) listen(c models.Change) {
	r.changes = append(r.changes, c)
}

func newStore(t *testing.T) (*graph.Store, *recorder) {
	t.Helper()

	reg := registry.NewRegistry(slog.New(slog.DiscardHandler))
	reg.RegisterDefaultTemplates()

	store := graph.NewStore(reg)
	rec := &recorder{}
	store.Subscribe(rec.listen)

	return store, rec
}

func add(t *testing.T, s *graph.Store, payload models.Payload) models.NodeID {
	t.Helper()

	id, err := s.AddNode(payload.Kind(), payload)
	require.NoError(t, err)

	return id
}

func TestStore_AddNode(t *testing.T) {
	store, rec := newStore(t)

	source := add(t, store, testutil.CreateTestSource())
	lighting := add(t, store, testutil.CreateTestCircuit())

	assert.Equal(t, models.NodeID(1), source)
	assert.Equal(t, models.NodeID(2), lighting)
	assert.Equal(t, []models.NodeID{source, lighting}, store.Nodes())

	node, ok := store.Node(lighting)
	require.True(t, ok)
	assert.Equal(t, models.KindCircuit, node.Kind)
	_, hasSupply := node.Input(circuit.InputPortSupply)
	assert.True(t, hasSupply)

	require.Len(t, rec.changes, 2)
	assert.Equal(t, models.ChangeNodeAdded, rec.changes[1].Kind)

	_, err := store.AddNode(models.KindCircuit, testutil.CreateTestSource())
	require.ErrorIs(t, err, graph.ErrKindMismatch)
	assert.Equal(t, 2, store.Len())
}

func TestStore_AddConnection(t *testing.T) {
	store, rec := newStore(t)

	source := add(t, store, testutil.CreateTestSource())
	lighting := add(t, store, testutil.CreateTestCircuit())

	require.NoError(t, store.AddConnection(ref(source, powersource.OutputPortVoltage), ref(lighting, circuit.InputPortSupply)))

	got, ok := store.Source(ref(lighting, circuit.InputPortSupply))
	require.True(t, ok)
	assert.Equal(t, ref(source, powersource.OutputPortVoltage), got)

	last := rec.changes[len(rec.changes)-1]
	assert.Equal(t, models.ChangeConnectionAdded, last.Kind)
	assert.Equal(t, lighting, last.Affected())
}

func TestStore_AddConnectionRejected(t *testing.T) {
	store, rec := newStore(t)

	source := add(t, store, testutil.CreateTestSource())
	lighting := add(t, store, testutil.CreateTestCircuit())
	box := add(t, store, testutil.CreateTestBox())
	selection := add(t, store, models.CalculationParams{Name: "Selection", Margin: 1.1, Phase: models.ThreePhase})

	require.NoError(t, store.AddConnection(ref(source, powersource.OutputPortVoltage), ref(lighting, circuit.InputPortSupply)))

	before := len(rec.changes)

	tests := []struct {
		name           string
		source, target models.PortRef
		want           error
	}{
		{"missing source node", ref(99, "voltage"), ref(lighting, circuit.InputPortSupply), graph.ErrNotFound},
		{"missing input port", ref(source, powersource.OutputPortVoltage), ref(lighting, "bogus"), graph.ErrPortNotFound},
		{"input used as output", ref(lighting, circuit.InputPortSupply), ref(box, distributionbox.InputPortSupply), graph.ErrPortNotFound},
		{"self connection", ref(box, distributionbox.OutputPortVoltage), ref(box, distributionbox.InputPortSupply), graph.ErrSelfConnection},
		{"type mismatch", ref(source, powersource.OutputPortVoltage), ref(selection, calculation.InputPortCurrent), graph.ErrTypeMismatch},
		{"already bound", ref(box, distributionbox.OutputPortVoltage), ref(lighting, circuit.InputPortSupply), graph.ErrInputAlreadyBound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.AddConnection(tt.source, tt.target)
			require.ErrorIs(t, err, tt.want)

			var portErr *graph.PortError
			require.ErrorAs(t, err, &portErr)
			assert.Equal(t, "connect", portErr.Op)
		})
	}

	assert.Len(t, store.Connections(), 1)
	assert.Len(t, rec.changes, before)

	assert.True(t, graph.IsRejectedConnection(store.AddConnection(ref(box, distributionbox.OutputPortVoltage), ref(lighting, circuit.InputPortSupply))))
	assert.True(t, graph.IsNotFound(store.AddConnection(ref(99, "voltage"), ref(lighting, circuit.InputPortSupply))))
}

func TestStore_RemoveConnection(t *testing.T) {
	store, rec := newStore(t)

	source := add(t, store, testutil.CreateTestSource())
	lighting := add(t, store, testutil.CreateTestCircuit())
	target := ref(lighting, circuit.InputPortSupply)

	require.NoError(t, store.AddConnection(ref(source, powersource.OutputPortVoltage), target))
	require.NoError(t, store.RemoveConnection(target))

	last := rec.changes[len(rec.changes)-1]
	assert.Equal(t, models.ChangeConnectionRemoved, last.Kind)
	assert.Empty(t, store.Connections())

	require.ErrorIs(t, store.RemoveConnection(target), graph.ErrNotConnected)
	require.ErrorIs(t, store.RemoveConnection(ref(42, "supply")), graph.ErrNotFound)
}

func TestStore_RemoveNode(t *testing.T) {
	store, rec := newStore(t)

	source := add(t, store, testutil.CreateTestSource())
	lighting := add(t, store, testutil.CreateTestCircuit())
	sockets := add(t, store, testutil.CreateTestCircuit(testutil.WithCircuitName("Sockets")))
	box := add(t, store, testutil.CreateTestBox())

	require.NoError(t, store.AddConnection(ref(source, powersource.OutputPortVoltage), ref(lighting, circuit.InputPortSupply)))
	require.NoError(t, store.AddConnection(ref(source, powersource.OutputPortVoltage), ref(sockets, circuit.InputPortSupply)))
	require.NoError(t, store.AddConnection(ref(lighting, circuit.OutputPortRecord), ref(box, distributionbox.CircuitPort(1))))

	require.NoError(t, store.RemoveNode(source))

	last := rec.changes[len(rec.changes)-1]
	assert.Equal(t, models.ChangeNodeRemoved, last.Kind)
	assert.Equal(t, []models.NodeID{lighting, sockets}, last.Consumers)
	assert.Len(t, last.Removed, 2)
	assert.Contains(t, last.RemovedOutputs, ref(source, powersource.OutputPortVoltage))

	assert.Len(t, store.Connections(), 1)
	_, ok := store.Node(source)
	assert.False(t, ok)

	// Handles are never reused.
	next := add(t, store, testutil.CreateTestSource())
	assert.Equal(t, box+1, next)

	require.ErrorIs(t, store.RemoveNode(source), graph.ErrNotFound)
}

func TestStore_UpdateParams(t *testing.T) {
	store, rec := newStore(t)

	lighting := add(t, store, testutil.CreateTestCircuit())
	sockets := add(t, store, testutil.CreateTestCircuit(testutil.WithCircuitName("Sockets")))
	box := add(t, store, testutil.CreateTestBox())

	require.NoError(t, store.AddConnection(ref(lighting, circuit.OutputPortRecord), ref(box, distributionbox.CircuitPort(1))))
	require.NoError(t, store.AddConnection(ref(sockets, circuit.OutputPortRecord), ref(box, distributionbox.CircuitPort(3))))

	changed, err := store.UpdateParams(box, testutil.CreateTestBox())
	require.NoError(t, err)
	assert.False(t, changed)

	before := len(rec.changes)

	changed, err = store.UpdateParams(box, testutil.CreateTestBox(func(p *models.DistributionBoxParams) { p.CircuitSlots = 2 }))
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, rec.changes, before+1)

	last := rec.changes[before]
	assert.Equal(t, models.ChangeParamsUpdated, last.Kind)
	require.Len(t, last.Removed, 1)
	assert.Equal(t, ref(box, distributionbox.CircuitPort(3)), last.Removed[0].Target)

	node, _ := store.Node(box)
	assert.Len(t, node.Inputs, 3)
	assert.Len(t, store.Connections(), 1)

	_, err = store.UpdateParams(box, testutil.CreateTestCircuit())
	require.ErrorIs(t, err, graph.ErrKindMismatch)

	_, err = store.UpdateParams(42, testutil.CreateTestBox())
	require.ErrorIs(t, err, graph.ErrNotFound)
}

func TestStore_UpstreamDownstreamAndOrdering(t *testing.T) {
	store, _ := newStore(t)

	box := add(t, store, testutil.CreateTestBox(func(p *models.DistributionBoxParams) { p.CircuitSlots = 12 }))

	var circuits []models.NodeID
	for range 3 {
		circuits = append(circuits, add(t, store, testutil.CreateTestCircuit()))
	}

	require.NoError(t, store.AddConnection(ref(circuits[0], circuit.OutputPortRecord), ref(box, distributionbox.CircuitPort(10))))
	require.NoError(t, store.AddConnection(ref(circuits[1], circuit.OutputPortRecord), ref(box, distributionbox.CircuitPort(2))))
	require.NoError(t, store.AddConnection(ref(circuits[2], circuit.OutputPortRecord), ref(box, distributionbox.CircuitPort(1))))

	assert.Equal(t, []models.NodeID{circuits[2], circuits[1], circuits[0]}, store.Upstream(box))
	assert.Equal(t, []models.NodeID{box}, store.Downstream(circuits[0]))
	assert.Empty(t, store.Upstream(circuits[0]))

	conns := store.Connections()
	require.Len(t, conns, 3)
	assert.Equal(t, distributionbox.CircuitPort(1), conns[0].Target.Port)
	assert.Equal(t, distributionbox.CircuitPort(2), conns[1].Target.Port)
	assert.Equal(t, distributionbox.CircuitPort(10), conns[2].Target.Port)
}

func TestStore_SnapshotRestore(t *testing.T) {
	store, rec := newStore(t)

	source := add(t, store, testutil.CreateTestSource())
	removed := add(t, store, testutil.CreateTestCircuit())
	lighting := add(t, store, testutil.CreateTestCircuit())

	require.NoError(t, store.AddConnection(ref(source, powersource.OutputPortVoltage), ref(lighting, circuit.InputPortSupply)))
	require.NoError(t, store.RemoveNode(removed))

	snap, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, models.NodeID(4), snap.NextID)
	assert.Len(t, snap.Nodes, 2)

	restored, restoredRec := newStore(t)
	require.NoError(t, restored.Restore(snap))
	assert.Empty(t, restoredRec.changes)

	assert.Equal(t, store.Nodes(), restored.Nodes())
	assert.Equal(t, store.Connections(), restored.Connections())

	next := add(t, restored, testutil.CreateTestSource())
	assert.Equal(t, models.NodeID(4), next)

	snap.Connections = append(snap.Connections, models.Connection{Source: ref(source, "bogus"), Target: ref(lighting, circuit.InputPortSupply)})
	require.Error(t, restored.Restore(snap))

	assert.NotEmpty(t, rec.changes)
}
