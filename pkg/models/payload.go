package models

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Phase is the supply system of a load.
type Phase string

const (
	SinglePhase Phase = "single"
	ThreePhase  Phase = "three"
)

// Nominal voltages per phase system.
const (
	SinglePhaseVoltage = 220.0
	ThreePhaseVoltage  = 380.0
)

// NominalVoltage returns the nominal line voltage for the phase system.
func (p Phase) NominalVoltage() float64 {
	if p == ThreePhase {
		return ThreePhaseVoltage
	}

	return SinglePhaseVoltage
}

// Module flags understood by the trunk synthesis.
const (
	ModuleDualPowerSwitch = "dual_power_switch"
	ModuleFireLoad        = "fire_load"
)

// Payload is the closed union of per-kind node parameters.
type Payload interface {
	Kind() NodeKind
	DisplayName() string
	sealed()
}

type PowerSourceParams struct {
	Name    string  `json:"name" yaml:"name" validate:"max=128"`
	Voltage float64 `json:"voltage" yaml:"voltage" validate:"gt=0"`
	Phase   Phase   `json:"phase" yaml:"phase" validate:"oneof=single three"`
}

type CircuitParams struct {
	Name              string  `json:"name" yaml:"name" validate:"max=128"`
	RatedPower        float64 `json:"rated_power" yaml:"rated_power" validate:"gte=0"`
	DemandCoefficient float64 `json:"demand_coefficient" yaml:"demand_coefficient" validate:"gte=0,lte=1"`
	PowerFactor       float64 `json:"power_factor" yaml:"power_factor" validate:"gte=0,lte=1"`
	Phase             Phase   `json:"phase" yaml:"phase" validate:"oneof=single three"`
	// Voltage of zero means the nominal voltage of Phase.
	Voltage float64 `json:"voltage,omitempty" yaml:"voltage,omitempty" validate:"gte=0"`
	Purpose string  `json:"purpose,omitempty" yaml:"purpose,omitempty"`
}

// EffectiveVoltage returns the configured voltage or the phase nominal.
func (p CircuitParams) EffectiveVoltage() float64 {
	if p.Voltage > 0 {
		return p.Voltage
	}

	return p.Phase.NominalVoltage()
}

type DistributionBoxParams struct {
	Name         string   `json:"name" yaml:"name" validate:"max=128"`
	Floor        int      `json:"floor" yaml:"floor"`
	Modules      []string `json:"modules,omitempty" yaml:"modules,omitempty"`
	CircuitSlots int      `json:"circuit_slots" yaml:"circuit_slots" validate:"gte=1,lte=32"`
}

// HasModule reports whether the box carries the given module flag.
func (p DistributionBoxParams) HasModule(flag string) bool {
	return slices.Contains(p.Modules, flag)
}

type TrunkLineParams struct {
	Name     string `json:"name" yaml:"name" validate:"max=128"`
	BoxSlots int    `json:"box_slots" yaml:"box_slots" validate:"gte=1,lte=64"`
}

type CalculationParams struct {
	Name   string  `json:"name" yaml:"name" validate:"max=128"`
	Margin float64 `json:"margin" yaml:"margin" validate:"gt=0"`
	Phase  Phase   `json:"phase" yaml:"phase" validate:"oneof=single three"`
}

func (PowerSourceParams) Kind() NodeKind     { return KindPowerSource }
func (CircuitParams) Kind() NodeKind         { return KindCircuit }
func (DistributionBoxParams) Kind() NodeKind { return KindDistributionBox }
func (TrunkLineParams) Kind() NodeKind       { return KindTrunkLine }
func (CalculationParams) Kind() NodeKind     { return KindCalculation }

func (p PowerSourceParams) DisplayName() string     { return p.Name }
func (p CircuitParams) DisplayName() string         { return p.Name }
func (p DistributionBoxParams) DisplayName() string { return p.Name }
func (p TrunkLineParams) DisplayName() string       { return p.Name }
func (p CalculationParams) DisplayName() string     { return p.Name }

func (PowerSourceParams) sealed()     {}
func (CircuitParams) sealed()         {}
func (DistributionBoxParams) sealed() {}
func (TrunkLineParams) sealed()       {}
func (CalculationParams) sealed()     {}

// NewPayload returns a zero payload for the kind.
func NewPayload(kind NodeKind) (Payload, error) {
	switch kind {
	case KindPowerSource:
		return PowerSourceParams{}, nil
	case KindCircuit:
		return CircuitParams{}, nil
	case KindDistributionBox:
		return DistributionBoxParams{}, nil
	case KindTrunkLine:
		return TrunkLineParams{}, nil
	case KindCalculation:
		return CalculationParams{}, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
}

// DecodePayload unmarshals raw JSON params into the payload type of kind.
func DecodePayload(kind NodeKind, raw json.RawMessage) (Payload, error) {
	var (
		payload Payload
		err     error
	)

	switch kind {
	case KindPowerSource:
		var p PowerSourceParams
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindCircuit:
		var p CircuitParams
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindDistributionBox:
		var p DistributionBoxParams
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindTrunkLine:
		var p TrunkLineParams
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindCalculation:
		var p CalculationParams
		err = json.Unmarshal(raw, &p)
		payload = p
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s params: %w", kind, err)
	}

	return payload, nil
}
