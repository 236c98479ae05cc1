package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotNode is the serializable form of a node.
type SnapshotNode struct {
	ID      NodeID          `json:"id"`
	Kind    NodeKind        `json:"kind"`
	Params  json.RawMessage `json:"params"`
	Inputs  []PortSpec      `json:"inputs"`
	Outputs []PortSpec      `json:"outputs"`
}

// Snapshot is a consistent view of nodes, connections and cached values.
type Snapshot struct {
	ProjectID   string               `json:"project_id,omitempty"`
	Name        string               `json:"name,omitempty"`
	NextID      NodeID               `json:"next_id"`
	Nodes       []SnapshotNode       `json:"nodes"`
	Connections []Connection         `json:"connections"`
	Values      map[PortRef]Value    `json:"values,omitempty"`
	States      map[NodeID]NodeState `json:"states,omitempty"`
	TakenAt     time.Time            `json:"taken_at"`
}

// NewSnapshotNode encodes a node's payload.
func NewSnapshotNode(n *Node) (SnapshotNode, error) {
	params, err := json.Marshal(n.Payload)
	if err != nil {
		return SnapshotNode{}, fmt.Errorf("failed to encode params of node %s: %w", n.ID, err)
	}

	return SnapshotNode{
		ID:      n.ID,
		Kind:    n.Kind,
		Params:  params,
		Inputs:  n.Inputs,
		Outputs: n.Outputs,
	}, nil
}

// Node decodes the snapshot node back into a Node.
func (s SnapshotNode) Node() (*Node, error) {
	payload, err := DecodePayload(s.Kind, s.Params)
	if err != nil {
		return nil, err
	}

	return &Node{
		ID:      s.ID,
		Kind:    s.Kind,
		Payload: payload,
		Inputs:  s.Inputs,
		Outputs: s.Outputs,
	}, nil
}

// Validate checks that every connection references an existing port.
func (s *Snapshot) Validate() error {
	ports := make(map[PortRef]PortDirection)

	for _, n := range s.Nodes {
		for _, p := range n.Inputs {
			ports[PortRef{Node: n.ID, Port: p.Name}] = PortDirectionInput
		}

		for _, p := range n.Outputs {
			ports[PortRef{Node: n.ID, Port: p.Name}] = PortDirectionOutput
		}
	}

	for _, c := range s.Connections {
		if ports[c.Source] != PortDirectionOutput {
			return fmt.Errorf("connection %s references unknown output %s", c, c.Source)
		}

		if ports[c.Target] != PortDirectionInput {
			return fmt.Errorf("connection %s references unknown input %s", c, c.Target)
		}
	}

	for ref := range s.Values {
		if ports[ref] != PortDirectionOutput {
			return fmt.Errorf("cached value references unknown output %s", ref)
		}
	}

	return nil
}
