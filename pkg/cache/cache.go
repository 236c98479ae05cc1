// Package cache stores the last computed value of every output port.
package cache

import (
	"maps"
	"sync"

	"github.com/dukex/voltgraph/pkg/models"
)

// Cache is the result store the engine reads inputs from and writes outputs to.
type Cache interface {
	Get(ref models.PortRef) (models.Value, bool)
	Put(ref models.PortRef, value models.Value)
	Delete(ref models.PortRef)
	DeleteNode(id models.NodeID)
	Values() map[models.PortRef]models.Value
	Len() int
}

// Memory is a RWMutex guarded map keyed by output port.
type Memory struct {
	mu     sync.RWMutex
	values map[models.PortRef]models.Value
}

func NewMemory() *Memory {
	return &Memory{values: make(map[models.PortRef]models.Value)}
}

func (m *Memory) Get(ref models.PortRef) (models.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[ref]

	return v, ok
}

func (m *Memory) Put(ref models.PortRef, value models.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[ref] = value
}

func (m *Memory) Delete(ref models.PortRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, ref)
}

// DeleteNode drops every entry produced by the node.
func (m *Memory) DeleteNode(id models.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ref := range m.values {
		if ref.Node == id {
			delete(m.values, ref)
		}
	}
}

// Values returns a copy of all entries.
func (m *Memory) Values() map[models.PortRef]models.Value {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.values)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.values)
}

// Load replaces the contents with values, used when restoring a snapshot.
func (m *Memory) Load(values map[models.PortRef]models.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[models.PortRef]models.Value, len(values))
	maps.Copy(m.values, values)
}
