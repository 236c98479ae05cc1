// Package propagator turns graph changes into the set of nodes to recompute.
package propagator

import (
	"log/slog"
	"sync"

	"github.com/dukex/voltgraph/pkg/cache"
	"github.com/dukex/voltgraph/pkg/engine"
	"github.com/dukex/voltgraph/pkg/models"
)

// Graph is the read view needed to walk consumers.
type Graph interface {
	Node(id models.NodeID) (*models.Node, bool)
	Downstream(id models.NodeID) []models.NodeID
}

// Propagator purges stale cache entries and collects dirty nodes.
type Propagator struct {
	logger *slog.Logger
	graph  Graph
	cache  cache.Cache
	states *engine.StateTable

	mu      sync.Mutex
	pending models.DirtySet
}

func New(logger *slog.Logger, g Graph, c cache.Cache, states *engine.StateTable) *Propagator {
	return &Propagator{
		logger:  logger,
		graph:   g,
		cache:   c,
		states:  states,
		pending: models.NewDirtySet(),
	}
}

// OnChange computes the forward closure of a change, drops the cached
// outputs of every node in it and marks those nodes stale. A nil change
// yields an empty set.
func (p *Propagator) OnChange(change *models.Change) models.DirtySet {
	if change == nil {
		return models.NewDirtySet()
	}

	for _, ref := range change.RemovedOutputs {
		p.cache.Delete(ref)
	}

	var roots []models.NodeID

	if change.Kind == models.ChangeNodeRemoved {
		p.cache.DeleteNode(change.Node)
		p.states.Forget(change.Node)
		roots = change.Consumers
	} else {
		roots = []models.NodeID{change.Affected()}
	}

	dirty := Closure(p.graph, roots...)

	for _, id := range dirty.IDs() {
		p.cache.DeleteNode(id)
	}

	p.states.MarkStale(dirty.IDs()...)

	p.logger.Debug("Change propagated", "kind", change.Kind, "node_id", change.Node, "dirty", dirty.Len())

	return dirty
}

// Listen is a graph.Listener that accumulates the dirty closure of every change.
func (p *Propagator) Listen(change models.Change) {
	dirty := p.OnChange(&change)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending.Merge(dirty)

	if change.Kind == models.ChangeNodeRemoved {
		p.pending.Remove(change.Node)
	}
}

// Pending returns a copy of the accumulated dirty set.
func (p *Propagator) Pending() models.DirtySet {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := models.NewDirtySet()
	cp.Merge(p.pending)

	return cp
}

// Take returns the accumulated dirty set and resets it.
func (p *Propagator) Take() models.DirtySet {
	p.mu.Lock()
	defer p.mu.Unlock()

	taken := p.pending
	p.pending = models.NewDirtySet()

	return taken
}

// MarkAll makes the next evaluation recompute every node.
func (p *Propagator) MarkAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = models.AllDirty()
}

// Restore puts back a set taken by an evaluation that did not finish.
func (p *Propagator) Restore(dirty models.DirtySet) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending.Merge(dirty)
}

// Closure returns roots plus every node reachable from them along connections.
// Roots that no longer exist are skipped.
func Closure(g Graph, roots ...models.NodeID) models.DirtySet {
	dirty := models.NewDirtySet()
	queue := make([]models.NodeID, 0, len(roots))

	for _, id := range roots {
		if _, ok := g.Node(id); ok && !dirty.Has(id) {
			dirty.Add(id)
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, next := range g.Downstream(id) {
			if !dirty.Has(next) {
				dirty.Add(next)
				queue = append(queue, next)
			}
		}
	}

	return dirty
}
