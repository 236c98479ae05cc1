// Package workspace owns one project graph together with its cache, state
// table, propagator and engine.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/voltgraph/pkg/cache"
	"github.com/dukex/voltgraph/pkg/engine"
	"github.com/dukex/voltgraph/pkg/eventbus"
	"github.com/dukex/voltgraph/pkg/events"
	"github.com/dukex/voltgraph/pkg/graph"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/propagator"
	"github.com/dukex/voltgraph/pkg/registry"
	"github.com/dukex/voltgraph/pkg/resolver"
)

type Workspace struct {
	id     string
	name   string
	logger *slog.Logger

	registry   *registry.Registry
	store      *graph.Store
	cache      *cache.Memory
	states     *engine.StateTable
	propagator *propagator.Propagator
	executor   *engine.Executor
	publisher  eventbus.EventPublisher

	engineOpts []engine.Option

	// evalMu serializes evaluation passes.
	evalMu sync.Mutex
}

type Option func(*Workspace)

func WithID(id string) Option {
	return func(w *Workspace) { w.id = id }
}

func WithName(name string) Option {
	return func(w *Workspace) { w.name = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) { w.logger = logger }
}

func WithRegistry(r *registry.Registry) Option {
	return func(w *Workspace) { w.registry = r }
}

// WithPublisher publishes graph.changed, evaluation.completed and node.failed events.
func WithPublisher(p eventbus.EventPublisher) Option {
	return func(w *Workspace) { w.publisher = p }
}

func WithEngineOptions(opts ...engine.Option) Option {
	return func(w *Workspace) { w.engineOpts = append(w.engineOpts, opts...) }
}

// New creates an empty workspace. Its first evaluation recomputes every node.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		logger: slog.Default(),
		cache:  cache.NewMemory(),
		states: engine.NewStateTable(),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.registry == nil {
		w.registry = registry.NewRegistry(w.logger)
		w.registry.RegisterDefaultTemplates()
	}

	w.logger = w.logger.With("module", "workspace", "project_id", w.id)
	w.store = graph.NewStore(w.registry)
	w.propagator = propagator.New(w.logger, w.store, w.cache, w.states)
	w.executor = engine.NewExecutor(w.states, append([]engine.Option{engine.WithLogger(w.logger)}, w.engineOpts...)...)

	w.store.Subscribe(w.propagator.Listen)
	w.store.Subscribe(w.publishChange)
	w.propagator.MarkAll()

	return w
}

func (w *Workspace) ID() string {
	return w.id
}

func (w *Workspace) Name() string {
	return w.name
}

func (w *Workspace) SetName(name string) {
	w.name = name
}

func (w *Workspace) Registry() *registry.Registry {
	return w.registry
}

// AddNode decodes params against the kind's template and adds the node.
func (w *Workspace) AddNode(kind models.NodeKind, params map[string]any) (models.NodeID, error) {
	payload, err := w.registry.DecodeParams(kind, params)
	if err != nil {
		return 0, err
	}

	return w.store.AddNode(kind, payload)
}

// AddNodeWithPayload adds a node from an already typed payload.
func (w *Workspace) AddNodeWithPayload(payload models.Payload) (models.NodeID, error) {
	if err := w.registry.ValidatePayload(payload); err != nil {
		return 0, err
	}

	return w.store.AddNode(payload.Kind(), payload)
}

func (w *Workspace) RemoveNode(id models.NodeID) error {
	return w.store.RemoveNode(id)
}

func (w *Workspace) Connect(source, target models.PortRef) error {
	return w.store.AddConnection(source, target)
}

func (w *Workspace) Disconnect(target models.PortRef) error {
	return w.store.RemoveConnection(target)
}

// UpdateParams merges params into the node's payload. It reports false when
// nothing changed.
func (w *Workspace) UpdateParams(id models.NodeID, params map[string]any) (bool, error) {
	node, ok := w.store.Node(id)
	if !ok {
		return false, fmt.Errorf("%w: node %s", graph.ErrNotFound, id)
	}

	payload, err := w.registry.MergeParams(node.Payload, params)
	if err != nil {
		return false, err
	}

	return w.store.UpdateParams(id, payload)
}

// Pending returns the nodes the next evaluation will recompute.
func (w *Workspace) Pending() models.DirtySet {
	return w.propagator.Pending()
}

// Evaluate recomputes the pending dirty set. A cycle aborts the pass before
// any node runs and keeps the set pending.
func (w *Workspace) Evaluate(ctx context.Context) (*engine.Report, error) {
	w.evalMu.Lock()
	defer w.evalMu.Unlock()

	dirty := w.propagator.Take()

	order, err := resolver.TopologicalOrder(w.store)
	if err != nil {
		w.propagator.Restore(dirty)
		w.logger.WarnContext(ctx, "Evaluation aborted", "error", err)

		return nil, err
	}

	report := w.executor.Evaluate(ctx, w.store, order, dirty, w.cache)

	if report.Cancelled {
		rest := models.NewDirtySet()

		for _, id := range report.Planned {
			if _, ran := report.Outcomes[id]; !ran {
				rest.Add(id)
			}
		}

		w.propagator.Restore(rest)
	}

	w.publishReport(ctx, report)

	return report, nil
}

// EvaluateAll recomputes every node regardless of the pending set.
func (w *Workspace) EvaluateAll(ctx context.Context) (*engine.Report, error) {
	w.propagator.MarkAll()

	return w.Evaluate(ctx)
}

// Order returns the current evaluation order without evaluating.
func (w *Workspace) Order() ([]models.NodeID, error) {
	return resolver.TopologicalOrder(w.store)
}

func (w *Workspace) Value(ref models.PortRef) (models.Value, bool) {
	return w.cache.Get(ref)
}

func (w *Workspace) Values() map[models.PortRef]models.Value {
	return w.cache.Values()
}

func (w *Workspace) State(id models.NodeID) models.NodeState {
	return w.states.Get(id)
}

func (w *Workspace) Node(id models.NodeID) (*models.Node, bool) {
	return w.store.Node(id)
}

func (w *Workspace) Nodes() []*models.Node {
	ids := w.store.Nodes()
	nodes := make([]*models.Node, 0, len(ids))

	for _, id := range ids {
		if n, ok := w.store.Node(id); ok {
			nodes = append(nodes, n)
		}
	}

	return nodes
}

func (w *Workspace) Connections() []models.Connection {
	return w.store.Connections()
}

// Label renders a node label such as "CIR-3".
func (w *Workspace) Label(id models.NodeID) string {
	n, ok := w.store.Node(id)
	if !ok {
		return id.String()
	}

	return w.registry.Label(n.Kind, id)
}

// Snapshot captures nodes, connections, cached values and node states.
func (w *Workspace) Snapshot() (*models.Snapshot, error) {
	w.evalMu.Lock()
	defer w.evalMu.Unlock()

	snap, err := w.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot graph: %w", err)
	}

	snap.ProjectID = w.id
	snap.Name = w.name
	snap.Values = w.cache.Values()
	snap.States = w.states.Snapshot()
	snap.TakenAt = time.Now().UTC()

	return snap, nil
}

// Restore replaces the workspace content with snap. Nodes that were not
// ready when the snapshot was taken are pending afterwards.
func (w *Workspace) Restore(snap *models.Snapshot) error {
	w.evalMu.Lock()
	defer w.evalMu.Unlock()

	for _, n := range snap.Nodes {
		payload, err := models.DecodePayload(n.Kind, n.Params)
		if err != nil {
			return err
		}

		if err := w.registry.ValidatePayload(payload); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}

	if err := w.store.Restore(snap); err != nil {
		return err
	}

	if snap.ProjectID != "" {
		w.id = snap.ProjectID
	}

	if snap.Name != "" {
		w.name = snap.Name
	}

	w.cache.Load(snap.Values)
	w.states.Load(snap.States)

	w.propagator.Take()

	pending := models.NewDirtySet()

	for _, id := range w.store.Nodes() {
		if w.states.Get(id) != models.NodeReady {
			pending.Add(id)
		}
	}

	w.propagator.Restore(pending)

	return nil
}

func (w *Workspace) publishChange(change models.Change) {
	if w.publisher == nil {
		return
	}

	ctx := context.Background()

	err := eventbus.PublishProjectEvent(ctx, w.publisher, &events.GraphChanged{
		BaseEvent: events.NewBaseEvent(events.GraphChangedEvent, w.id),
		Change:    change,
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish graph change", "kind", change.Kind, "error", err)
	}
}

func (w *Workspace) publishReport(ctx context.Context, report *engine.Report) {
	if w.publisher == nil {
		return
	}

	summary := report.Summary()

	warnings := 0
	for _, ws := range summary.Warnings {
		warnings += len(ws)
	}

	err := eventbus.PublishProjectEvent(ctx, w.publisher, &events.EvaluationCompleted{
		BaseEvent:  events.NewBaseEvent(events.EvaluationCompletedEvent, w.id),
		RunID:      report.RunID,
		Evaluated:  summary.Evaluated,
		Succeeded:  summary.Succeeded,
		Failed:     len(summary.Failed),
		Warnings:   warnings,
		Cancelled:  report.Cancelled,
		DurationMs: summary.DurationMS,
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish evaluation report", "run_id", report.RunID, "error", err)
	}

	for _, id := range report.Failed() {
		outcome := report.Outcomes[id]

		err := eventbus.PublishProjectEvent(ctx, w.publisher, &events.NodeFailed{
			BaseEvent: events.NewBaseEvent(events.NodeFailedEvent, w.id),
			RunID:     report.RunID,
			NodeID:    id,
			Kind:      outcome.Kind,
			Error:     outcome.Err.Error(),
		})
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish node failure", "node_id", id, "error", err)
		}
	}
}
