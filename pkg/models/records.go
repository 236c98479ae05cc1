package models

// PhaseLine is one of the three supply phases.
type PhaseLine int

const (
	L1 PhaseLine = iota
	L2
	L3
)

func (p PhaseLine) String() string {
	switch p {
	case L1:
		return "L1"
	case L2:
		return "L2"
	case L3:
		return "L3"
	default:
		return "L?"
	}
}

// CableSelection is the chosen conductor for a load current.
type CableSelection struct {
	PhaseSection float64 `json:"phase_section"`
	PESection    float64 `json:"pe_section"`
	Spec         string  `json:"spec"`
	OutOfRange   bool    `json:"out_of_range,omitempty"`
}

// CircuitRecord is the computed summary of one outgoing circuit.
type CircuitRecord struct {
	Name              string         `json:"name"`
	Number            string         `json:"number,omitempty"`
	Purpose           string         `json:"purpose,omitempty"`
	Phase             Phase          `json:"phase"`
	RatedPower        float64        `json:"rated_power"`
	DemandCoefficient float64        `json:"demand_coefficient"`
	PowerFactor       float64        `json:"power_factor"`
	Voltage           float64        `json:"voltage"`
	Load              float64        `json:"load"`
	Current           float64        `json:"current"`
	Current11         float64        `json:"current_1_1"`
	Current125        float64        `json:"current_1_25"`
	BreakerRating     float64        `json:"breaker_rating"`
	Cable             CableSelection `json:"cable"`
	Warnings          []string       `json:"warnings,omitempty"`
}

// PhaseBalance is the outcome of three-phase load balancing.
type PhaseBalance struct {
	Totals           [3]float64  `json:"totals"`
	Counts           [3]int      `json:"counts"`
	Assignment       []PhaseLine `json:"assignment"`
	Iterations       int         `json:"iterations"`
	Converged        bool        `json:"converged"`
	InitialUnbalance float64     `json:"initial_unbalance"`
	Unbalance        float64     `json:"unbalance"`
}

// DistributionBoxRecord is the aggregated summary of one distribution box.
type DistributionBoxRecord struct {
	Name           string          `json:"name"`
	Floor          int             `json:"floor"`
	Modules        []string        `json:"modules,omitempty"`
	Circuits       []CircuitRecord `json:"circuits"`
	TotalPower     float64         `json:"total_power"`
	TotalCurrent   float64         `json:"total_current"`
	IncomingRating float64         `json:"incoming_rating"`
	Balance        PhaseBalance    `json:"balance"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// ComponentType classifies a trunk diagram component.
type ComponentType string

const (
	ComponentBus          ComponentType = "bus"
	ComponentBox          ComponentType = "distribution_box"
	ComponentBackupSource ComponentType = "backup_source"
)

// ConnectionType classifies a trunk diagram connection.
type ConnectionType string

const (
	ConnectionSinglePower ConnectionType = "single_power"
	ConnectionDualPower   ConnectionType = "dual_power"
	ConnectionBackupPower ConnectionType = "backup_power"
)

type DiagramComponent struct {
	ID       int           `json:"id"`
	Type     ComponentType `json:"type"`
	Label    string        `json:"label"`
	Floor    int           `json:"floor"`
	Row      int           `json:"row"`
	Column   int           `json:"column"`
	FireLoad bool          `json:"fire_load,omitempty"`
}

type DiagramConnection struct {
	From int            `json:"from"`
	To   int            `json:"to"`
	Type ConnectionType `json:"type"`
}

// TrunkDiagram is the synthesized trunk system diagram.
type TrunkDiagram struct {
	Components    []DiagramComponent  `json:"components"`
	Connections   []DiagramConnection `json:"connections"`
	Floors        []int               `json:"floors"`
	DualPower     int                 `json:"dual_power"`
	FireLoadBoxes int                 `json:"fire_load_boxes"`
	TotalCurrent  float64             `json:"total_current"`
}
