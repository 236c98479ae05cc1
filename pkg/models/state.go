package models

import "fmt"

// NodeState is the computed status of a single node.
type NodeState string

const (
	NodeStale     NodeState = "stale"
	NodeComputing NodeState = "computing"
	NodeReady     NodeState = "ready"
	NodeFailed    NodeState = "failed"
)

// Terminal reports whether the node has finished its last computation.
func (s NodeState) Terminal() bool {
	return s == NodeReady || s == NodeFailed
}

// CanTransition reports whether moving from s to next is allowed.
// Ready and Failed only return to Stale when the node is marked dirty.
func (s NodeState) CanTransition(next NodeState) bool {
	switch s {
	case NodeStale:
		return next == NodeComputing
	case NodeComputing:
		return next == NodeReady || next == NodeFailed
	case NodeReady, NodeFailed:
		return next == NodeStale
	default:
		return false
	}
}

// TransitionError reports a disallowed state change.
type TransitionError struct {
	Node NodeID
	From NodeState
	To   NodeState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("disallowed transition for node %s: %s -> %s", e.Node, e.From, e.To)
}
