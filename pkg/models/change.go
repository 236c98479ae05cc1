package models

// ChangeKind classifies a graph mutation.
type ChangeKind string

const (
	ChangeNodeAdded         ChangeKind = "node_added"
	ChangeNodeRemoved       ChangeKind = "node_removed"
	ChangeParamsUpdated     ChangeKind = "params_updated"
	ChangeConnectionAdded   ChangeKind = "connection_added"
	ChangeConnectionRemoved ChangeKind = "connection_removed"
)

// Change is the record emitted by every mutating graph store operation.
type Change struct {
	Kind       ChangeKind  `json:"kind"`
	Node       NodeID      `json:"node"`
	Connection *Connection `json:"connection,omitempty"`
	// RemovedOutputs lists output ports that no longer exist after the change.
	RemovedOutputs []PortRef `json:"removed_outputs,omitempty"`
	// Consumers lists the nodes fed by the removed node at removal time,
	// since the store no longer has those edges once the change is emitted.
	Consumers []NodeID `json:"consumers,omitempty"`
	// Removed holds connections dropped as a side effect of the change.
	Removed []Connection `json:"removed,omitempty"`
}

// Affected returns the node whose outputs become stale because of the change.
func (c Change) Affected() NodeID {
	if c.Connection != nil && (c.Kind == ChangeConnectionAdded || c.Kind == ChangeConnectionRemoved) {
		return c.Connection.Target.Node
	}

	return c.Node
}
