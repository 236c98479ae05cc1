// Package testutil provides test data builders for node parameters.
package testutil

import (
	"github.com/dukex/voltgraph/pkg/models"
)

// CreateTestSource creates power source params with default values that can be overridden.
func CreateTestSource(overrides ...func(*models.PowerSourceParams)) models.PowerSourceParams {
	p := models.PowerSourceParams{
		Name:    "Utility",
		Voltage: models.SinglePhaseVoltage,
		Phase:   models.SinglePhase,
	}

	for _, override := range overrides {
		override(&p)
	}

	return p
}

// CreateTestCircuit creates the 2.2 kW single-phase lighting circuit by default.
func CreateTestCircuit(overrides ...func(*models.CircuitParams)) models.CircuitParams {
	p := models.CircuitParams{
		Name:              "Lighting",
		RatedPower:        2.2,
		DemandCoefficient: 0.8,
		PowerFactor:       0.85,
		Phase:             models.SinglePhase,
		Purpose:           "lighting",
	}

	for _, override := range overrides {
		override(&p)
	}

	return p
}

// CreateTestBox creates distribution box params with default values that can be overridden.
func CreateTestBox(overrides ...func(*models.DistributionBoxParams)) models.DistributionBoxParams {
	p := models.DistributionBoxParams{
		Name:         "AL1",
		Floor:        1,
		CircuitSlots: 4,
	}

	for _, override := range overrides {
		override(&p)
	}

	return p
}

// CreateTestTrunk creates trunk line params with default values that can be overridden.
func CreateTestTrunk(overrides ...func(*models.TrunkLineParams)) models.TrunkLineParams {
	p := models.TrunkLineParams{
		Name:     "Main",
		BoxSlots: 4,
	}

	for _, override := range overrides {
		override(&p)
	}

	return p
}

// WithRatedPower sets the rated power in kW.
func WithRatedPower(kw float64) func(*models.CircuitParams) {
	return func(p *models.CircuitParams) {
		p.RatedPower = kw
	}
}

// WithThreePhase switches the circuit to a three-phase supply.
func WithThreePhase() func(*models.CircuitParams) {
	return func(p *models.CircuitParams) {
		p.Phase = models.ThreePhase
	}
}

// WithCircuitName sets the circuit name.
func WithCircuitName(name string) func(*models.CircuitParams) {
	return func(p *models.CircuitParams) {
		p.Name = name
	}
}

// WithFloor places the box on a floor.
func WithFloor(floor int) func(*models.DistributionBoxParams) {
	return func(p *models.DistributionBoxParams) {
		p.Floor = floor
	}
}

// WithBoxName sets the box name.
func WithBoxName(name string) func(*models.DistributionBoxParams) {
	return func(p *models.DistributionBoxParams) {
		p.Name = name
	}
}

// WithModules sets the box module flags.
func WithModules(modules ...string) func(*models.DistributionBoxParams) {
	return func(p *models.DistributionBoxParams) {
		p.Modules = modules
	}
}

// WithSlots sets the number of circuit slots.
func WithSlots(n int) func(*models.DistributionBoxParams) {
	return func(p *models.DistributionBoxParams) {
		p.CircuitSlots = n
	}
}
