// Package calc implements the pure electrical calculations behind each node kind.
package calc

import (
	"errors"
	"fmt"
	"math"

	"github.com/dukex/voltgraph/pkg/models"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrOutOfRange       = errors.New("out of range")
)

// Sqrt3 is the line-to-phase factor used by three-phase formulas.
var Sqrt3 = math.Sqrt(3)

// Safety margins applied to the computed load current.
const (
	MarginProtection = 1.1
	MarginCable      = 1.25
)

// CircuitInput holds the parameters of a circuit current calculation.
type CircuitInput struct {
	RatedPower        float64 // kW
	DemandCoefficient float64
	PowerFactor       float64
	Voltage           float64
	Phase             models.Phase
}

// CircuitCurrent is the result of a circuit current calculation.
type CircuitCurrent struct {
	Load       float64 // kW, rated power times demand coefficient
	Current    float64
	Current11  float64
	Current125 float64
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// Current computes the load current of a circuit:
// single phase I = P*1000*Kx/(U*cos), three phase I = P*1000*Kx/(sqrt3*U*cos).
func Current(in CircuitInput) (CircuitCurrent, error) {
	switch {
	case in.PowerFactor <= 0 || in.PowerFactor > 1:
		return CircuitCurrent{}, invalid("power factor must be in (0, 1], got %v", in.PowerFactor)
	case in.Voltage <= 0:
		return CircuitCurrent{}, invalid("voltage must be positive, got %v", in.Voltage)
	case in.RatedPower < 0:
		return CircuitCurrent{}, invalid("rated power must not be negative, got %v", in.RatedPower)
	case in.DemandCoefficient <= 0 || in.DemandCoefficient > 1:
		return CircuitCurrent{}, invalid("demand coefficient must be in (0, 1], got %v", in.DemandCoefficient)
	}

	load := in.RatedPower * in.DemandCoefficient
	denominator := in.Voltage * in.PowerFactor

	if in.Phase == models.ThreePhase {
		denominator *= Sqrt3
	}

	current := load * 1000 / denominator
	if math.IsNaN(current) || math.IsInf(current, 0) {
		return CircuitCurrent{}, invalid("current is not finite")
	}

	return CircuitCurrent{
		Load:       load,
		Current:    current,
		Current11:  current * MarginProtection,
		Current125: current * MarginCable,
	}, nil
}

// ThreePhaseCurrent computes I = P*1000/(sqrt3*U*pf) for an aggregated load in kW.
func ThreePhaseCurrent(power, voltage, powerFactor float64) (float64, error) {
	switch {
	case power < 0:
		return 0, invalid("power must not be negative, got %v", power)
	case voltage <= 0:
		return 0, invalid("voltage must be positive, got %v", voltage)
	case powerFactor <= 0 || powerFactor > 1:
		return 0, invalid("power factor must be in (0, 1], got %v", powerFactor)
	}

	if power == 0 {
		return 0, nil
	}

	return power * 1000 / (Sqrt3 * voltage * powerFactor), nil
}
