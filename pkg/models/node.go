// Package models defines the data model of the distribution dataflow graph.
package models

import (
	"fmt"
	"strconv"
)

// NodeID is an opaque handle issued by the graph store. Zero is never a valid handle.
type NodeID int

func (id NodeID) String() string {
	return strconv.Itoa(int(id))
}

// ParseNodeID parses the decimal form produced by NodeID.String.
func ParseNodeID(s string) (NodeID, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid node id %q", s)
	}

	return NodeID(n), nil
}

// NodeKind selects one of the closed set of node variants.
type NodeKind string

const (
	KindPowerSource     NodeKind = "power_source"
	KindCircuit         NodeKind = "circuit"
	KindDistributionBox NodeKind = "distribution_box"
	KindTrunkLine       NodeKind = "trunk_line"
	KindCalculation     NodeKind = "calculation"
)

// Kinds lists every node kind in registration order.
func Kinds() []NodeKind {
	return []NodeKind{KindPowerSource, KindCircuit, KindDistributionBox, KindTrunkLine, KindCalculation}
}

func (k NodeKind) Valid() bool {
	switch k {
	case KindPowerSource, KindCircuit, KindDistributionBox, KindTrunkLine, KindCalculation:
		return true
	default:
		return false
	}
}

// Node is a read-only view of a node held by the graph store.
type Node struct {
	ID      NodeID     `json:"id"`
	Kind    NodeKind   `json:"kind"`
	Payload Payload    `json:"-"`
	Inputs  []PortSpec `json:"inputs"`
	Outputs []PortSpec `json:"outputs"`
}

// Input returns the input port spec with the given name.
func (n *Node) Input(name string) (PortSpec, bool) {
	for _, p := range n.Inputs {
		if p.Name == name {
			return p, true
		}
	}

	return PortSpec{}, false
}

// Output returns the output port spec with the given name.
func (n *Node) Output(name string) (PortSpec, bool) {
	for _, p := range n.Outputs {
		if p.Name == name {
			return p, true
		}
	}

	return PortSpec{}, false
}

// OutputRefs returns references to all output ports of the node.
func (n *Node) OutputRefs() []PortRef {
	refs := make([]PortRef, 0, len(n.Outputs))
	for _, p := range n.Outputs {
		refs = append(refs, PortRef{Node: n.ID, Port: p.Name})
	}

	return refs
}

// Name returns the user-facing name carried by the payload.
func (n *Node) Name() string {
	if n.Payload == nil {
		return ""
	}

	return n.Payload.DisplayName()
}
