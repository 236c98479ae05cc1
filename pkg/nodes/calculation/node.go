package calculation

import (
	"fmt"

	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
)

// Evaluate selects the breaker for current*margin and the cable for current.
func Evaluate(p models.CalculationParams, inputs map[string]models.Value) (map[string]models.Value, []string, error) {
	in, ok := inputs[InputPortCurrent]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing %s", calc.ErrInvalidParameter, InputPortCurrent)
	}

	if p.Margin <= 0 {
		return nil, nil, fmt.Errorf("%w: margin must be positive, got %v", calc.ErrInvalidParameter, p.Margin)
	}

	if in.Number < 0 {
		return nil, nil, fmt.Errorf("%w: current must not be negative, got %v", calc.ErrInvalidParameter, in.Number)
	}

	var warnings []string

	rating, fits := calc.SelectBreaker(in.Number * p.Margin)
	if !fits {
		warnings = append(warnings, fmt.Sprintf("%v: breaker for %.2fA, using %.0fA", calc.ErrOutOfRange, in.Number*p.Margin, rating))
	}

	cable := calc.SelectCable(in.Number, p.Phase)
	if cable.OutOfRange {
		warnings = append(warnings, fmt.Sprintf("%v: cable for %.2fA, using %s", calc.ErrOutOfRange, in.Number, cable.Spec))
	}

	return map[string]models.Value{
		OutputPortBreaker: models.Scalar(models.DataBreaker, rating),
		OutputPortCable:   models.Scalar(models.DataCrossSection, cable.PhaseSection),
	}, warnings, nil
}
