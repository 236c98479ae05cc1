package models

import (
	"fmt"
	"strings"
)

// DataKind types the values flowing through ports.
type DataKind string

const (
	DataCurrent       DataKind = "current"
	DataPower         DataKind = "power"
	DataVoltage       DataKind = "voltage"
	DataPowerFactor   DataKind = "power_factor"
	DataCircuitRecord DataKind = "circuit_record"
	DataBoxRecord     DataKind = "distribution_box_record"
	DataPhaseBalance  DataKind = "phase_balance"
	DataTrunkDiagram  DataKind = "trunk_diagram"
	DataCrossSection  DataKind = "cross_section"
	DataBreaker       DataKind = "breaker_rating"
)

// Scalar reports whether values of this kind are plain numbers.
func (k DataKind) Scalar() bool {
	switch k {
	case DataCurrent, DataPower, DataVoltage, DataPowerFactor, DataCrossSection, DataBreaker:
		return true
	default:
		return false
	}
}

// PortDirection represents the direction of data flow for a port.
type PortDirection string

const (
	PortDirectionInput  PortDirection = "input"
	PortDirectionOutput PortDirection = "output"
)

// PortSpec declares a named, typed slot on a node.
// Default and Required only apply to input ports.
type PortSpec struct {
	Name        string   `json:"name"`
	Kind        DataKind `json:"kind"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Default     *Value   `json:"default,omitempty"`
}

// PortRef identifies one port on one node.
type PortRef struct {
	Node NodeID `json:"node"`
	Port string `json:"port"`
}

// String renders the ref as "{node}:{port}".
func (r PortRef) String() string {
	return MakePortID(r.Node, r.Port)
}

func (r PortRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *PortRef) UnmarshalText(text []byte) error {
	ref, err := ParsePortRef(string(text))
	if err != nil {
		return err
	}

	*r = ref

	return nil
}

// MakePortID creates a port ID from node ID and port name.
func MakePortID(node NodeID, port string) string {
	return node.String() + ":" + port
}

// ParsePortID parses a port ID in format "{node_id}:{port_name}" into components.
func ParsePortID(portID string) (string, string, bool) {
	node, port, ok := strings.Cut(portID, ":")
	if !ok || node == "" || port == "" {
		return "", "", false
	}

	return node, port, true
}

// ParsePortRef parses "{node}:{port}" into a PortRef.
func ParsePortRef(portID string) (PortRef, error) {
	node, port, ok := ParsePortID(portID)
	if !ok {
		return PortRef{}, fmt.Errorf("invalid port id %q", portID)
	}

	id, err := ParseNodeID(node)
	if err != nil {
		return PortRef{}, err
	}

	return PortRef{Node: id, Port: port}, nil
}

// Connection is a directed edge from an output port to an input port.
type Connection struct {
	Source PortRef `json:"source"`
	Target PortRef `json:"target"`
}

func (c Connection) String() string {
	return c.Source.String() + " -> " + c.Target.String()
}
