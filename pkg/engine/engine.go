// Package engine evaluates dirty nodes of a graph in dependency order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/voltgraph/pkg/cache"
	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/otelhelper"
	"github.com/dukex/voltgraph/pkg/resolver"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnresolvedInput    = errors.New("unresolved input")
	ErrUnsupportedPayload = errors.New("unsupported node payload")
	ErrUndeclaredOutput   = errors.New("undeclared output")
)

// UnresolvedInputError names the input that had no value.
type UnresolvedInputError struct {
	Node models.NodeID
	Port string
	// Source is set when the input is connected but the producer has no value.
	Source *models.PortRef
}

func (e *UnresolvedInputError) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("%v: %s:%s has no value from %s", ErrUnresolvedInput, e.Node, e.Port, e.Source)
	}

	return fmt.Sprintf("%v: %s:%s is required and not connected", ErrUnresolvedInput, e.Node, e.Port)
}

func (e *UnresolvedInputError) Unwrap() error {
	return ErrUnresolvedInput
}

// Graph is the read view the engine needs from the graph store.
type Graph interface {
	resolver.Graph
	Node(id models.NodeID) (*models.Node, bool)
	Source(target models.PortRef) (models.PortRef, bool)
}

type Executor struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	workers int
	balance calc.BalanceOptions
	states  *StateTable
}

type Option func(*Executor)

// WithParallel evaluates each rank with up to workers goroutines.
// Values below 2 keep the pass sequential.
func WithParallel(workers int) Option {
	return func(e *Executor) { e.workers = workers }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) { e.tracer = tracer }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

func WithBalanceOptions(opts calc.BalanceOptions) Option {
	return func(e *Executor) { e.balance = opts }
}

func NewExecutor(states *StateTable, opts ...Option) *Executor {
	e := &Executor{
		logger:  slog.Default(),
		tracer:  otelhelper.NoopTracer(),
		balance: calc.DefaultBalanceOptions(),
		states:  states,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.states == nil {
		e.states = NewStateTable()
	}

	return e
}

func (e *Executor) States() *StateTable {
	return e.states
}

func (e *Executor) Parallel() bool {
	return e.workers > 1
}

// Evaluate recomputes every node of order that is in dirty. Node failures are
// recorded in the report and never stop sibling nodes; consumers of a failed
// node fail with ErrUnresolvedInput. A cancelled context stops the pass
// between nodes and leaves the remaining nodes stale.
func (e *Executor) Evaluate(ctx context.Context, g Graph, order []models.NodeID, dirty models.DirtySet, c cache.Cache) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Outcomes:  make(map[models.NodeID]*Outcome),
	}

	for _, id := range order {
		if dirty.Has(id) {
			report.Planned = append(report.Planned, id)
		}
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.evaluate",
		attribute.String(otelhelper.RunIDKey, report.RunID),
		attribute.Int(otelhelper.DirtyKey, len(report.Planned)),
		attribute.Int(otelhelper.WorkersKey, max(e.workers, 1)),
	)
	defer span.End()

	logger := e.logger.With("run_id", report.RunID)
	logger.DebugContext(ctx, "Starting evaluation", "planned", len(report.Planned), "parallel", e.Parallel())

	if e.Parallel() {
		e.evaluateRanks(ctx, g, order, dirty, c, report)
	} else {
		e.evaluateSequential(ctx, g, report, c)
	}

	report.FinishedAt = time.Now()

	if err := ctx.Err(); err != nil && len(report.Outcomes) < len(report.Planned) {
		report.Cancelled = true
		report.Err = err
		otelhelper.SetError(span, err)
		logger.WarnContext(ctx, "Evaluation cancelled", "evaluated", len(report.Outcomes), "planned", len(report.Planned))
	}

	if failed := report.Failed(); len(failed) > 0 {
		span.SetAttributes(attribute.Int("voltgraph.failed.count", len(failed)))
	}

	logger.InfoContext(ctx, "Evaluation finished",
		"evaluated", len(report.Outcomes),
		"failed", len(report.Failed()),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	return report
}

func (e *Executor) evaluateSequential(ctx context.Context, g Graph, report *Report, c cache.Cache) {
	for _, id := range report.Planned {
		if ctx.Err() != nil {
			return
		}

		report.Outcomes[id] = e.evaluateNode(ctx, g, id, c)
	}
}

// evaluateRanks runs one rank at a time. Wait is the barrier between ranks.
func (e *Executor) evaluateRanks(ctx context.Context, g Graph, order []models.NodeID, dirty models.DirtySet, c cache.Cache, report *Report) {
	var mu sync.Mutex

	for rank, layer := range resolver.Ranks(g, order) {
		if ctx.Err() != nil {
			return
		}

		var group errgroup.Group
		group.SetLimit(e.workers)

		for _, id := range layer {
			if !dirty.Has(id) {
				continue
			}

			group.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}

				outcome := e.evaluateNode(ctx, g, id, c)

				mu.Lock()
				report.Outcomes[id] = outcome
				mu.Unlock()

				return nil
			})
		}

		_ = group.Wait()

		e.logger.DebugContext(ctx, "Rank evaluated", "rank", rank, "size", len(layer))
	}
}

func (e *Executor) evaluateNode(ctx context.Context, g Graph, id models.NodeID, c cache.Cache) *Outcome {
	started := time.Now()
	outcome := &Outcome{Node: id, State: models.NodeFailed}

	node, ok := g.Node(id)
	if !ok {
		outcome.Err = fmt.Errorf("node %s not found", id)

		return outcome
	}

	outcome.Kind = node.Kind

	_, span := otelhelper.StartSpan(ctx, e.tracer, "engine.node",
		attribute.String(otelhelper.NodeIDKey, id.String()),
		attribute.String(otelhelper.NodeKindKey, string(node.Kind)),
	)
	defer span.End()

	if err := e.states.begin(id); err != nil {
		outcome.Err = err
		otelhelper.SetError(span, err)

		return outcome
	}

	for _, ref := range node.OutputRefs() {
		c.Delete(ref)
	}

	outputs, warnings, err := e.compute(g, node, c)
	if err == nil {
		err = writeOutputs(node, outputs, c)
	}

	outcome.Duration = time.Since(started)
	outcome.Warnings = warnings

	if err != nil {
		outcome.Err = err
		e.transition(ctx, id, models.NodeFailed)
		otelhelper.NodeFailed(span, id.String(), string(node.Kind), err)
		e.logger.WarnContext(ctx, "Node evaluation failed", "node_id", id, "kind", node.Kind, "error", err)

		return outcome
	}

	outcome.State = models.NodeReady
	e.transition(ctx, id, models.NodeReady)

	for _, w := range warnings {
		e.logger.WarnContext(ctx, "Node evaluation warning", "node_id", id, "kind", node.Kind, "warning", w)
	}

	return outcome
}

func (e *Executor) compute(g Graph, node *models.Node, c cache.Cache) (map[string]models.Value, []string, error) {
	inputs, err := ResolveInputs(g, node, c)
	if err != nil {
		return nil, nil, err
	}

	return Dispatch(node.Payload, inputs, e.balance)
}

// ResolveInputs gathers one value per input port: the producer's cached
// value when connected, otherwise the declared default. A required port with
// neither, or a connected port whose producer has no value, is unresolved.
func ResolveInputs(g Graph, node *models.Node, c cache.Cache) (map[string]models.Value, error) {
	inputs := make(map[string]models.Value, len(node.Inputs))

	for _, port := range node.Inputs {
		target := models.PortRef{Node: node.ID, Port: port.Name}

		if source, ok := g.Source(target); ok {
			v, ok := c.Get(source)
			if !ok {
				return nil, &UnresolvedInputError{Node: node.ID, Port: port.Name, Source: &source}
			}

			inputs[port.Name] = v

			continue
		}

		if port.Default != nil {
			inputs[port.Name] = *port.Default

			continue
		}

		if port.Required {
			return nil, &UnresolvedInputError{Node: node.ID, Port: port.Name}
		}
	}

	return inputs, nil
}

func writeOutputs(node *models.Node, outputs map[string]models.Value, c cache.Cache) error {
	for name, v := range outputs {
		spec, ok := node.Output(name)
		if !ok {
			return fmt.Errorf("%w: %s:%s", ErrUndeclaredOutput, node.ID, name)
		}

		if v.Kind != spec.Kind {
			return fmt.Errorf("output %s:%s: got %s, declared %s", node.ID, name, v.Kind, spec.Kind)
		}

		if err := v.Validate(); err != nil {
			return fmt.Errorf("output %s:%s: %w", node.ID, name, err)
		}
	}

	for name, v := range outputs {
		c.Put(models.PortRef{Node: node.ID, Port: name}, v)
	}

	return nil
}

func (e *Executor) transition(ctx context.Context, id models.NodeID, to models.NodeState) {
	if err := e.states.Transition(id, to); err != nil {
		e.logger.DebugContext(ctx, "Ignoring state transition", "node_id", id, "to", to, "error", err)
	}
}
