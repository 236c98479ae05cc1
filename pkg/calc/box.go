package calc

import (
	"fmt"

	"github.com/dukex/voltgraph/pkg/models"
)

// Distribution box aggregation constants.
const (
	BoxLineVoltage = 380.0
	BoxPowerFactor = 0.85
	IncomingMargin = 1.2
)

// BoxTotals is the aggregated load of one distribution box.
type BoxTotals struct {
	TotalPower     float64
	TotalCurrent   float64
	IncomingRating float64
	OutOfRange     bool
}

// AggregateBox sums circuit loads and sizes the incoming protection.
func AggregateBox(circuits []models.CircuitRecord) (BoxTotals, error) {
	var total float64

	for _, c := range circuits {
		if c.Load < 0 {
			return BoxTotals{}, invalid("circuit %q has negative load %v", c.Name, c.Load)
		}

		total += c.Load
	}

	current, err := ThreePhaseCurrent(total, BoxLineVoltage, BoxPowerFactor)
	if err != nil {
		return BoxTotals{}, err
	}

	rating, ok := SelectIncoming(current)

	return BoxTotals{
		TotalPower:     total,
		TotalCurrent:   current,
		IncomingRating: rating,
		OutOfRange:     !ok,
	}, nil
}

// NumberCircuits assigns "{box}-{n}" numbers in slot order.
func NumberCircuits(box string, circuits []models.CircuitRecord) {
	for i := range circuits {
		circuits[i].Number = fmt.Sprintf("%s-%d", box, i+1)
	}
}
