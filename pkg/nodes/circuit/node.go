package circuit

import (
	"fmt"

	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
)

// Evaluate computes the circuit current, selects the breaker and the cable.
func Evaluate(p models.CircuitParams, inputs map[string]models.Value) (map[string]models.Value, []string, error) {
	voltage := p.EffectiveVoltage()
	if v, ok := inputs[InputPortSupply]; ok {
		voltage = v.Number
	}

	pf := p.PowerFactor
	if v, ok := inputs[InputPortPowerFactor]; ok {
		pf = v.Number
	}

	result, err := calc.Current(calc.CircuitInput{
		RatedPower:        p.RatedPower,
		DemandCoefficient: p.DemandCoefficient,
		PowerFactor:       pf,
		Voltage:           voltage,
		Phase:             p.Phase,
	})
	if err != nil {
		return nil, nil, err
	}

	var warnings []string

	rating, ok := calc.SelectBreaker(result.Current11)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("%v: breaker for %.2fA, using %.0fA", calc.ErrOutOfRange, result.Current11, rating))
	}

	cable := calc.SelectCable(result.Current, p.Phase)
	if cable.OutOfRange {
		warnings = append(warnings, fmt.Sprintf("%v: cable for %.2fA, using %s", calc.ErrOutOfRange, result.Current, cable.Spec))
	}

	record := models.CircuitRecord{
		Name:              p.Name,
		Purpose:           p.Purpose,
		Phase:             p.Phase,
		RatedPower:        p.RatedPower,
		DemandCoefficient: p.DemandCoefficient,
		PowerFactor:       pf,
		Voltage:           voltage,
		Load:              result.Load,
		Current:           result.Current,
		Current11:         result.Current11,
		Current125:        result.Current125,
		BreakerRating:     rating,
		Cable:             cable,
		Warnings:          warnings,
	}

	return map[string]models.Value{
		OutputPortPower:   models.Scalar(models.DataPower, result.Load),
		OutputPortCurrent: models.Scalar(models.DataCurrent, result.Current),
		OutputPortRecord:  models.CircuitValue(record),
	}, warnings, nil
}
