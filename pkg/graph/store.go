// Package graph holds nodes, ports and connections and enforces their structural invariants.
package graph

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/dukex/voltgraph/pkg/models"
)

// PortLayout supplies the port schema of a node from its kind and parameters.
type PortLayout interface {
	Ports(kind models.NodeKind, payload models.Payload) (inputs, outputs []models.PortSpec, err error)
}

// Listener receives every change record emitted by the store.
type Listener func(models.Change)

// Store is an arena of nodes addressed by integer handles.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	layout    PortLayout
	nodes     []*models.Node
	sources   map[models.PortRef]models.PortRef
	listeners []Listener
}

// NewStore creates an empty store using layout for port schemas.
func NewStore(layout PortLayout) *Store {
	return &Store{
		layout:  layout,
		sources: make(map[models.PortRef]models.PortRef),
	}
}

// Subscribe registers a listener for change records.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, l)
}

func (s *Store) emit(c models.Change) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(c)
	}
}

// AddNode creates a node and returns its handle.
func (s *Store) AddNode(kind models.NodeKind, payload models.Payload) (models.NodeID, error) {
	if payload == nil || payload.Kind() != kind {
		return 0, fmt.Errorf("%w: %s", ErrKindMismatch, kind)
	}

	inputs, outputs, err := s.layout.Ports(kind, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to lay out ports of %s: %w", kind, err)
	}

	s.mu.Lock()
	id := models.NodeID(len(s.nodes) + 1)
	s.nodes = append(s.nodes, &models.Node{
		ID:      id,
		Kind:    kind,
		Payload: payload,
		Inputs:  inputs,
		Outputs: outputs,
	})
	s.mu.Unlock()

	s.emit(models.Change{Kind: models.ChangeNodeAdded, Node: id})

	return id, nil
}

// RemoveNode deletes a node and every connection touching its ports.
func (s *Store) RemoveNode(id models.NodeID) error {
	s.mu.Lock()

	node, ok := s.lookup(id)
	if !ok {
		s.mu.Unlock()

		return nodeNotFound(id)
	}

	change := models.Change{
		Kind:           models.ChangeNodeRemoved,
		Node:           id,
		RemovedOutputs: node.OutputRefs(),
		Consumers:      s.downstream(id),
	}

	for target, source := range s.sources {
		if target.Node == id || source.Node == id {
			change.Removed = append(change.Removed, models.Connection{Source: source, Target: target})
			delete(s.sources, target)
		}
	}

	sortConnections(change.Removed)

	s.nodes[id-1] = nil
	s.mu.Unlock()

	s.emit(change)

	return nil
}

// UpdateParams replaces the payload of a node. It reports false and emits
// nothing when the payload is unchanged.
func (s *Store) UpdateParams(id models.NodeID, payload models.Payload) (bool, error) {
	s.mu.RLock()
	node, ok := s.lookup(id)
	s.mu.RUnlock()

	if !ok {
		return false, nodeNotFound(id)
	}

	if payload == nil || payload.Kind() != node.Kind {
		return false, fmt.Errorf("%w: %s", ErrKindMismatch, node.Kind)
	}

	if reflect.DeepEqual(node.Payload, payload) {
		return false, nil
	}

	inputs, outputs, err := s.layout.Ports(node.Kind, payload)
	if err != nil {
		return false, fmt.Errorf("failed to lay out ports of %s: %w", node.Kind, err)
	}

	s.mu.Lock()

	node, ok = s.lookup(id)
	if !ok {
		s.mu.Unlock()

		return false, nodeNotFound(id)
	}

	updated := &models.Node{ID: id, Kind: node.Kind, Payload: payload, Inputs: inputs, Outputs: outputs}
	change := models.Change{Kind: models.ChangeParamsUpdated, Node: id}

	for _, out := range node.Outputs {
		if _, kept := updated.Output(out.Name); !kept {
			change.RemovedOutputs = append(change.RemovedOutputs, models.PortRef{Node: id, Port: out.Name})
		}
	}

	for target, source := range s.sources {
		_, inputKept := updated.Input(target.Port)
		_, outputKept := updated.Output(source.Port)

		if (target.Node == id && !inputKept) || (source.Node == id && !outputKept) {
			change.Removed = append(change.Removed, models.Connection{Source: source, Target: target})
			delete(s.sources, target)
		}
	}

	sortConnections(change.Removed)

	s.nodes[id-1] = updated
	s.mu.Unlock()

	s.emit(change)

	return true, nil
}

// AddConnection wires an output port to an input port.
func (s *Store) AddConnection(source, target models.PortRef) error {
	s.mu.Lock()

	if err := s.checkConnection(source, target); err != nil {
		s.mu.Unlock()

		return &PortError{Op: "connect", Source: &source, Target: target, Err: err}
	}

	s.sources[target] = source
	s.mu.Unlock()

	s.emit(models.Change{
		Kind:       models.ChangeConnectionAdded,
		Node:       target.Node,
		Connection: &models.Connection{Source: source, Target: target},
	})

	return nil
}

func (s *Store) checkConnection(source, target models.PortRef) error {
	src, ok := s.lookup(source.Node)
	if !ok {
		return nodeNotFound(source.Node)
	}

	dst, ok := s.lookup(target.Node)
	if !ok {
		return nodeNotFound(target.Node)
	}

	out, ok := src.Output(source.Port)
	if !ok {
		return fmt.Errorf("%w: output %s", ErrPortNotFound, source)
	}

	in, ok := dst.Input(target.Port)
	if !ok {
		return fmt.Errorf("%w: input %s", ErrPortNotFound, target)
	}

	if source.Node == target.Node {
		return ErrSelfConnection
	}

	if out.Kind != in.Kind {
		return fmt.Errorf("%w: %s != %s", ErrTypeMismatch, out.Kind, in.Kind)
	}

	if _, bound := s.sources[target]; bound {
		return ErrInputAlreadyBound
	}

	return nil
}

// RemoveConnection unbinds an input port.
func (s *Store) RemoveConnection(target models.PortRef) error {
	s.mu.Lock()

	if _, ok := s.lookup(target.Node); !ok {
		s.mu.Unlock()

		return &PortError{Op: "disconnect", Target: target, Err: nodeNotFound(target.Node)}
	}

	source, ok := s.sources[target]
	if !ok {
		s.mu.Unlock()

		return &PortError{Op: "disconnect", Target: target, Err: ErrNotConnected}
	}

	delete(s.sources, target)
	s.mu.Unlock()

	s.emit(models.Change{
		Kind:       models.ChangeConnectionRemoved,
		Node:       target.Node,
		Connection: &models.Connection{Source: source, Target: target},
	})

	return nil
}

func (s *Store) lookup(id models.NodeID) (*models.Node, bool) {
	if id <= 0 || int(id) > len(s.nodes) {
		return nil, false
	}

	n := s.nodes[id-1]

	return n, n != nil
}

// Node returns a copy of the node with the given handle.
func (s *Store) Node(id models.NodeID) (*models.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.lookup(id)
	if !ok {
		return nil, false
	}

	cp := *n

	return &cp, true
}

// Nodes returns live node handles in creation order.
func (s *Store) Nodes() []models.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]models.NodeID, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n != nil {
			ids = append(ids, n.ID)
		}
	}

	return ids
}

// Len returns the number of live nodes.
func (s *Store) Len() int {
	return len(s.Nodes())
}

// Source returns the output port feeding target, if any.
func (s *Store) Source(target models.PortRef) (models.PortRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.sources[target]

	return src, ok
}

// Upstream returns the distinct producers of id in input-port order.
func (s *Store) Upstream(id models.NodeID) []models.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.lookup(id)
	if !ok {
		return nil
	}

	var producers []models.NodeID

	for _, in := range n.Inputs {
		src, bound := s.sources[models.PortRef{Node: id, Port: in.Name}]
		if bound && !slices.Contains(producers, src.Node) {
			producers = append(producers, src.Node)
		}
	}

	return producers
}

// Downstream returns the distinct consumers of id in ascending handle order.
func (s *Store) Downstream(id models.NodeID) []models.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.downstream(id)
}

func (s *Store) downstream(id models.NodeID) []models.NodeID {
	var consumers []models.NodeID

	for target, source := range s.sources {
		if source.Node == id && !slices.Contains(consumers, target.Node) {
			consumers = append(consumers, target.Node)
		}
	}

	slices.Sort(consumers)

	return consumers
}

// Connections returns all connections ordered by target port.
func (s *Store) Connections() []models.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.connections()
}

func (s *Store) connections() []models.Connection {
	conns := make([]models.Connection, 0, len(s.sources))
	for target, source := range s.sources {
		conns = append(conns, models.Connection{Source: source, Target: target})
	}

	sortConnections(conns)

	return conns
}

func sortConnections(conns []models.Connection) {
	slices.SortFunc(conns, func(a, b models.Connection) int {
		if a.Target.Node != b.Target.Node {
			return int(a.Target.Node - b.Target.Node)
		}

		return portOrder(a.Target.Port, b.Target.Port)
	})
}

// portOrder sorts slot ports numerically ("circuit_2" before "circuit_10").
func portOrder(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}

	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Snapshot returns a consistent copy of nodes and connections.
func (s *Store) Snapshot() (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &models.Snapshot{
		NextID:      models.NodeID(len(s.nodes) + 1),
		Nodes:       make([]models.SnapshotNode, 0, len(s.nodes)),
		Connections: s.connections(),
		TakenAt:     time.Now().UTC(),
	}

	for _, n := range s.nodes {
		if n == nil {
			continue
		}

		sn, err := models.NewSnapshotNode(n)
		if err != nil {
			return nil, err
		}

		snap.Nodes = append(snap.Nodes, sn)
	}

	return snap, nil
}

// Restore replaces the store content with a snapshot, keeping node handles.
// Listeners are kept and are not notified.
func (s *Store) Restore(snap *models.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	size := int(snap.NextID) - 1
	for _, sn := range snap.Nodes {
		size = max(size, int(sn.ID))
	}

	nodes := make([]*models.Node, size)

	for _, sn := range snap.Nodes {
		if sn.ID <= 0 {
			return fmt.Errorf("invalid snapshot: node id %d", sn.ID)
		}

		n, err := sn.Node()
		if err != nil {
			return err
		}

		nodes[sn.ID-1] = n
	}

	sources := make(map[models.PortRef]models.PortRef, len(snap.Connections))
	for _, c := range snap.Connections {
		if _, dup := sources[c.Target]; dup {
			return fmt.Errorf("invalid snapshot: %w: %s", ErrInputAlreadyBound, c.Target)
		}

		sources[c.Target] = c.Source
	}

	s.mu.Lock()
	s.nodes = nodes
	s.sources = sources
	s.mu.Unlock()

	return nil
}
