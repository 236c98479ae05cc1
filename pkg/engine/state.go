package engine

import (
	"maps"
	"sync"

	"github.com/dukex/voltgraph/pkg/models"
)

// StateTable tracks the NodeState of every node. Unknown nodes are stale.
type StateTable struct {
	mu     sync.RWMutex
	states map[models.NodeID]models.NodeState
}

func NewStateTable() *StateTable {
	return &StateTable{states: make(map[models.NodeID]models.NodeState)}
}

func (t *StateTable) Get(id models.NodeID) models.NodeState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s, ok := t.states[id]; ok {
		return s
	}

	return models.NodeStale
}

// Transition moves a node to next, rejecting moves the state machine forbids.
func (t *StateTable) Transition(id models.NodeID, next models.NodeState) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.transition(id, next)
}

func (t *StateTable) transition(id models.NodeID, next models.NodeState) error {
	current, ok := t.states[id]
	if !ok {
		current = models.NodeStale
	}

	if !current.CanTransition(next) {
		return &models.TransitionError{Node: id, From: current, To: next}
	}

	t.states[id] = next

	return nil
}

// MarkStale returns finished nodes to stale. Nodes already stale are left alone.
func (t *StateTable) MarkStale(ids ...models.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		if s, ok := t.states[id]; ok && s.Terminal() {
			t.states[id] = models.NodeStale
		}
	}
}

// MarkAllStale returns every finished node to stale.
func (t *StateTable) MarkAllStale() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, s := range t.states {
		if s.Terminal() {
			t.states[id] = models.NodeStale
		}
	}
}

// begin moves a node into computing, passing through stale if it had finished.
func (t *StateTable) begin(id models.NodeID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.states[id]; ok && s.Terminal() {
		t.states[id] = models.NodeStale
	}

	return t.transition(id, models.NodeComputing)
}

func (t *StateTable) Forget(id models.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.states, id)
}

// Snapshot returns a copy of all recorded states.
func (t *StateTable) Snapshot() map[models.NodeID]models.NodeState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return maps.Clone(t.states)
}

// Load replaces the table. Nodes restored mid-computation come back stale.
func (t *StateTable) Load(states map[models.NodeID]models.NodeState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.states = make(map[models.NodeID]models.NodeState, len(states))

	for id, s := range states {
		if s == models.NodeComputing {
			s = models.NodeStale
		}

		t.states[id] = s
	}
}
