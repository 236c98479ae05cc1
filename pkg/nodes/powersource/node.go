package powersource

import (
	"fmt"

	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
)

// Evaluate publishes the configured voltage.
func Evaluate(p models.PowerSourceParams, _ map[string]models.Value) (map[string]models.Value, []string, error) {
	if p.Voltage <= 0 {
		return nil, nil, fmt.Errorf("%w: voltage must be positive, got %v", calc.ErrInvalidParameter, p.Voltage)
	}

	return map[string]models.Value{
		OutputPortVoltage: models.Scalar(models.DataVoltage, p.Voltage),
	}, nil, nil
}
