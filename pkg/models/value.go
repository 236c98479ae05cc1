package models

import (
	"fmt"
)

// Value is a computed or default port value. Scalar kinds use Number,
// record kinds carry exactly one of the record pointers.
type Value struct {
	Kind    DataKind               `json:"kind"`
	Number  float64                `json:"number,omitempty"`
	Circuit *CircuitRecord         `json:"circuit,omitempty"`
	Box     *DistributionBoxRecord `json:"box,omitempty"`
	Balance *PhaseBalance          `json:"balance,omitempty"`
	Trunk   *TrunkDiagram          `json:"trunk,omitempty"`
}

// Scalar builds a numeric value of the given kind.
func Scalar(kind DataKind, n float64) Value {
	return Value{Kind: kind, Number: n}
}

func CircuitValue(r CircuitRecord) Value {
	return Value{Kind: DataCircuitRecord, Circuit: &r}
}

func BoxValue(r DistributionBoxRecord) Value {
	return Value{Kind: DataBoxRecord, Box: &r}
}

func BalanceValue(b PhaseBalance) Value {
	return Value{Kind: DataPhaseBalance, Balance: &b}
}

func TrunkValue(d TrunkDiagram) Value {
	return Value{Kind: DataTrunkDiagram, Trunk: &d}
}

// Validate checks that the value carries the payload its kind requires.
func (v Value) Validate() error {
	var ok bool

	switch v.Kind {
	case DataCircuitRecord:
		ok = v.Circuit != nil
	case DataBoxRecord:
		ok = v.Box != nil
	case DataPhaseBalance:
		ok = v.Balance != nil
	case DataTrunkDiagram:
		ok = v.Trunk != nil
	default:
		ok = v.Kind.Scalar()
	}

	if !ok {
		return fmt.Errorf("value of kind %q has no matching payload", v.Kind)
	}

	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case DataCircuitRecord:
		if v.Circuit != nil {
			return fmt.Sprintf("circuit %s %.2fA", v.Circuit.Number, v.Circuit.Current)
		}
	case DataBoxRecord:
		if v.Box != nil {
			return fmt.Sprintf("box %s %.2fkW %.2fA", v.Box.Name, v.Box.TotalPower, v.Box.TotalCurrent)
		}
	case DataPhaseBalance:
		if v.Balance != nil {
			return fmt.Sprintf("unbalance %.2f%%", v.Balance.Unbalance)
		}
	case DataTrunkDiagram:
		if v.Trunk != nil {
			return fmt.Sprintf("diagram %d components %d connections", len(v.Trunk.Components), len(v.Trunk.Connections))
		}
	default:
		return fmt.Sprintf("%.4g %s", v.Number, v.Kind)
	}

	return string(v.Kind)
}
