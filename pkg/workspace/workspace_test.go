package workspace

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/dukex/voltgraph/pkg/engine"
	"github.com/dukex/voltgraph/pkg/eventbus"
	"github.com/dukex/voltgraph/pkg/events"
	"github.com/dukex/voltgraph/pkg/graph"
	"github.com/dukex/voltgraph/pkg/mocks"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/nodes/circuit"
	"github.com/dukex/voltgraph/pkg/nodes/distributionbox"
	"github.com/dukex/voltgraph/pkg/nodes/powersource"
	"github.com/dukex/voltgraph/pkg/nodes/trunkline"
	"github.com/dukex/voltgraph/pkg/registry"
	"github.com/dukex/voltgraph/pkg/resolver"
	"github.com/dukex/voltgraph/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type project struct {
	ws *Workspace

	source, lighting, sockets, box, trunk models.NodeID
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func port(id models.NodeID, name string) models.PortRef {
	return models.PortRef{Node: id, Port: name}
}

// newProject builds source -> {lighting, sockets} -> box -> trunk.
func newProject(t *testing.T, opts ...Option) *project {
	t.Helper()

	p := &project{ws: New(append([]Option{WithID("project-1"), WithName("Office"), WithLogger(testLogger())}, opts...)...)}

	var err error

	p.source, err = p.ws.AddNodeWithPayload(testutil.CreateTestSource())
	require.NoError(t, err)

	p.lighting, err = p.ws.AddNodeWithPayload(testutil.CreateTestCircuit())
	require.NoError(t, err)

	p.sockets, err = p.ws.AddNodeWithPayload(testutil.CreateTestCircuit(
		testutil.WithCircuitName("Sockets"),
		testutil.WithRatedPower(3),
	))
	require.NoError(t, err)

	p.box, err = p.ws.AddNodeWithPayload(testutil.CreateTestBox())
	require.NoError(t, err)

	p.trunk, err = p.ws.AddNodeWithPayload(testutil.CreateTestTrunk())
	require.NoError(t, err)

	require.NoError(t, p.ws.Connect(port(p.source, powersource.OutputPortVoltage), port(p.lighting, circuit.InputPortSupply)))
	require.NoError(t, p.ws.Connect(port(p.source, powersource.OutputPortVoltage), port(p.sockets, circuit.InputPortSupply)))
	require.NoError(t, p.ws.Connect(port(p.lighting, circuit.OutputPortRecord), port(p.box, distributionbox.CircuitPort(1))))
	require.NoError(t, p.ws.Connect(port(p.sockets, circuit.OutputPortRecord), port(p.box, distributionbox.CircuitPort(2))))
	require.NoError(t, p.ws.Connect(port(p.box, distributionbox.OutputPortRecord), port(p.trunk, trunkline.BoxPort(1))))

	return p
}

func TestWorkspace_FirstEvaluationRunsEverything(t *testing.T) {
	p := newProject(t)

	report, err := p.ws.Evaluate(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Evaluated(), 5)
	assert.Empty(t, report.Failed())

	current, ok := p.ws.Value(port(p.lighting, circuit.OutputPortCurrent))
	require.True(t, ok)
	assert.InDelta(t, 9.41, current.Number, 0.005)

	record, ok := p.ws.Value(port(p.lighting, circuit.OutputPortRecord))
	require.True(t, ok)
	assert.InDelta(t, 10.35, record.Circuit.Current11, 0.005)
	assert.InDelta(t, 16.0, record.Circuit.BreakerRating, 1e-9)

	assert.Equal(t, models.NodeReady, p.ws.State(p.trunk))
}

func TestWorkspace_NothingPendingRecomputesNothing(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)

	changed, err := p.ws.UpdateParams(p.sockets, map[string]any{"rated_power": 3})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, p.ws.Pending().Empty())

	report, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Evaluated())
}

func TestWorkspace_ParamChangeRecomputesDownstreamOnly(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)

	before, _ := p.ws.Value(port(p.box, distributionbox.OutputPortPower))

	changed, err := p.ws.UpdateParams(p.lighting, map[string]any{"rated_power": 4.4})
	require.NoError(t, err)
	require.True(t, changed)

	report, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)

	assert.Equal(t, []models.NodeID{p.lighting, p.box, p.trunk}, report.Evaluated())

	after, ok := p.ws.Value(port(p.box, distributionbox.OutputPortPower))
	require.True(t, ok)
	assert.InDelta(t, before.Number+1.76, after.Number, 1e-9)
}

func TestWorkspace_InvalidParamsRejected(t *testing.T) {
	p := newProject(t)

	_, err := p.ws.UpdateParams(p.lighting, map[string]any{"power_factor": 1.5})
	require.ErrorIs(t, err, registry.ErrInvalidParams)

	_, err = p.ws.UpdateParams(99, map[string]any{"rated_power": 1})
	require.ErrorIs(t, err, graph.ErrNotFound)
}

func TestWorkspace_CycleAbortsEvaluation(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)

	// The box now feeds the circuit it aggregates.
	require.NoError(t, p.ws.Disconnect(port(p.lighting, circuit.InputPortSupply)))
	require.NoError(t, p.ws.Connect(port(p.box, distributionbox.OutputPortVoltage), port(p.lighting, circuit.InputPortSupply)))

	report, err := p.ws.Evaluate(ctx)
	require.ErrorIs(t, err, resolver.ErrCycle)
	assert.Nil(t, report)

	var cycle *resolver.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Contains(t, cycle.Path, p.lighting)
	assert.Contains(t, cycle.Path, p.box)

	assert.True(t, p.ws.Pending().Has(p.lighting))
	assert.Equal(t, models.NodeStale, p.ws.State(p.lighting))
}

func TestWorkspace_DisconnectReconnectRoundTrip(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)

	order, err := p.ws.Order()
	require.NoError(t, err)

	values := p.ws.Values()

	require.NoError(t, p.ws.Disconnect(port(p.box, distributionbox.CircuitPort(2))))
	_, err = p.ws.Evaluate(ctx)
	require.NoError(t, err)

	require.NoError(t, p.ws.Connect(port(p.sockets, circuit.OutputPortRecord), port(p.box, distributionbox.CircuitPort(2))))
	_, err = p.ws.Evaluate(ctx)
	require.NoError(t, err)

	reordered, err := p.ws.Order()
	require.NoError(t, err)

	assert.Equal(t, order, reordered)
	assert.Equal(t, values, p.ws.Values())
}

func TestWorkspace_RemoveNode(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)

	require.NoError(t, p.ws.RemoveNode(p.sockets))

	report, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.NodeID{p.box, p.trunk}, report.Evaluated())

	_, ok := p.ws.Value(port(p.sockets, circuit.OutputPortCurrent))
	assert.False(t, ok)

	record, ok := p.ws.Value(port(p.box, distributionbox.OutputPortRecord))
	require.True(t, ok)
	assert.Len(t, record.Box.Circuits, 1)

	require.ErrorIs(t, p.ws.RemoveNode(p.sockets), graph.ErrNotFound)
}

func TestWorkspace_SnapshotRestoreIsIdempotent(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)

	snap, err := p.ws.Snapshot()
	require.NoError(t, err)

	encoded, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded models.Snapshot
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	restored := New(WithLogger(testLogger()))
	require.NoError(t, restored.Restore(&decoded))

	assert.Equal(t, "project-1", restored.ID())
	assert.Equal(t, "Office", restored.Name())
	assert.True(t, restored.Pending().Empty())
	assert.Equal(t, p.ws.Values(), restored.Values())

	again, err := restored.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, snap.Nodes, again.Nodes)
	assert.Equal(t, snap.Connections, again.Connections)
	assert.Equal(t, snap.NextID, again.NextID)
	assert.Equal(t, snap.States, again.States)

	// Handles survive, so new nodes continue after the restored ones.
	id, err := restored.AddNodeWithPayload(testutil.CreateTestSource())
	require.NoError(t, err)
	assert.Equal(t, p.trunk+1, id)
}

func TestWorkspace_EvaluateAll(t *testing.T) {
	p := newProject(t)
	ctx := context.Background()

	_, err := p.ws.Evaluate(ctx)
	require.NoError(t, err)

	report, err := p.ws.EvaluateAll(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Evaluated(), 5)
}

func TestWorkspace_ParallelEngine(t *testing.T) {
	sequential := newProject(t)
	parallel := newProject(t, WithEngineOptions(engine.WithParallel(4)))

	_, err := sequential.ws.Evaluate(context.Background())
	require.NoError(t, err)

	_, err = parallel.ws.Evaluate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sequential.ws.Values(), parallel.ws.Values())
}

func TestWorkspace_PublishesEvents(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "project-1", mock.AnythingOfType("*events.GraphChanged")).Return(nil)
	bus.On("Publish", mock.Anything, "project-1", mock.AnythingOfType("*events.EvaluationCompleted")).Return(nil).Once()
	bus.On("Publish", mock.Anything, "project-1", mock.MatchedBy(func(e eventbus.Event) bool {
		failed, ok := e.(*events.NodeFailed)

		return ok && failed.Kind == models.KindPowerSource
	})).Return(nil).Once()

	ws := New(WithID("project-1"), WithLogger(testLogger()), WithPublisher(bus))

	// Zero voltage passes the store but fails evaluation.
	_, err := ws.store.AddNode(models.KindPowerSource, models.PowerSourceParams{Name: "Dead", Phase: models.SinglePhase})
	require.NoError(t, err)

	report, err := ws.Evaluate(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Failed(), 1)

	bus.AssertExpectations(t)
}

func TestWorkspace_Label(t *testing.T) {
	p := newProject(t)

	assert.Equal(t, "PS-1", p.ws.Label(p.source))
	assert.Equal(t, "CIR-2", p.ws.Label(p.lighting))
	assert.Equal(t, "ML-5", p.ws.Label(p.trunk))
}
