package engine

import (
	"fmt"

	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/nodes/calculation"
	"github.com/dukex/voltgraph/pkg/nodes/circuit"
	"github.com/dukex/voltgraph/pkg/nodes/distributionbox"
	"github.com/dukex/voltgraph/pkg/nodes/powersource"
	"github.com/dukex/voltgraph/pkg/nodes/trunkline"
)

// Dispatch runs the calculator for the payload's node kind.
func Dispatch(payload models.Payload, inputs map[string]models.Value, balance calc.BalanceOptions) (map[string]models.Value, []string, error) {
	switch p := payload.(type) {
	case models.PowerSourceParams:
		return powersource.Evaluate(p, inputs)
	case models.CircuitParams:
		return circuit.Evaluate(p, inputs)
	case models.DistributionBoxParams:
		return distributionbox.Evaluate(p, inputs, balance)
	case models.TrunkLineParams:
		return trunkline.Evaluate(p, inputs)
	case models.CalculationParams:
		return calculation.Evaluate(p, inputs)
	default:
		return nil, nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
}
