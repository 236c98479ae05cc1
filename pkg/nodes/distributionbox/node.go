package distributionbox

import (
	"fmt"
	"slices"

	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
)

// Evaluate aggregates the connected circuits in slot order.
func Evaluate(p models.DistributionBoxParams, inputs map[string]models.Value, opts calc.BalanceOptions) (map[string]models.Value, []string, error) {
	supply := models.ThreePhaseVoltage
	if v, ok := inputs[InputPortSupply]; ok {
		supply = v.Number
	}

	if supply <= 0 {
		return nil, nil, fmt.Errorf("%w: supply voltage must be positive, got %v", calc.ErrInvalidParameter, supply)
	}

	slots := p.CircuitSlots
	if slots <= 0 {
		slots = DefaultCircuitSlots
	}

	circuits := make([]models.CircuitRecord, 0, slots)

	for i := 1; i <= slots; i++ {
		v, ok := inputs[CircuitPort(i)]
		if !ok || v.Circuit == nil {
			continue
		}

		circuits = append(circuits, *v.Circuit)
	}

	calc.NumberCircuits(p.Name, circuits)

	totals, err := calc.AggregateBox(circuits)
	if err != nil {
		return nil, nil, err
	}

	powers := make([]float64, len(circuits))
	for i, c := range circuits {
		powers[i] = c.Load
	}

	balance := calc.Balance(powers, opts)

	var warnings []string

	if totals.OutOfRange {
		warnings = append(warnings, fmt.Sprintf("%v: incoming device for %.2fA, using %.0fA", calc.ErrOutOfRange, totals.TotalCurrent, totals.IncomingRating))
	}

	if !balance.Converged {
		warnings = append(warnings, fmt.Sprintf("phases not balanced within tolerance after %d iterations, unbalance %.1f%%", balance.Iterations, balance.Unbalance))
	}

	record := models.DistributionBoxRecord{
		Name:           p.Name,
		Floor:          p.Floor,
		Modules:        slices.Clone(p.Modules),
		Circuits:       circuits,
		TotalPower:     totals.TotalPower,
		TotalCurrent:   totals.TotalCurrent,
		IncomingRating: totals.IncomingRating,
		Balance:        balance,
		Warnings:       warnings,
	}

	return map[string]models.Value{
		OutputPortVoltage:  models.Scalar(models.DataVoltage, supply),
		OutputPortPower:    models.Scalar(models.DataPower, totals.TotalPower),
		OutputPortCurrent:  models.Scalar(models.DataCurrent, totals.TotalCurrent),
		OutputPortIncoming: models.Scalar(models.DataBreaker, totals.IncomingRating),
		OutputPortBalance:  models.BalanceValue(balance),
		OutputPortRecord:   models.BoxValue(record),
	}, warnings, nil
}
