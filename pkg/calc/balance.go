package calc

import (
	"github.com/dukex/voltgraph/pkg/models"
)

// Balancing defaults.
const (
	DefaultBalanceTolerance = 0.01
	DefaultMaxIterations    = 100
)

// BalanceOptions tunes the three-phase balancer.
type BalanceOptions struct {
	Tolerance     float64 `json:"tolerance" yaml:"tolerance" validate:"gte=0"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations" validate:"gte=1"`
}

// DefaultBalanceOptions returns the tolerance and iteration cap used by boxes.
func DefaultBalanceOptions() BalanceOptions {
	return BalanceOptions{
		Tolerance:     DefaultBalanceTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

// Balance distributes single-phase loads over L1..L3.
//
// Loads start round-robin in connection order. Each iteration moves one load
// from the most-loaded to the least-loaded phase until the relative spread
// (max-min)/avg drops below the tolerance, no load can be moved, or the
// iteration cap is hit. A load qualifies when the receiving phase stays below
// the donor's previous total and does not become the new maximum; among
// qualifying loads the one with the smallest connection index moves.
func Balance(powers []float64, opts BalanceOptions) models.PhaseBalance {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	assignment := make([]models.PhaseLine, len(powers))

	var totals [3]float64

	for i, p := range powers {
		phase := models.PhaseLine(i % 3)
		assignment[i] = phase
		totals[phase] += p
	}

	result := models.PhaseBalance{
		Assignment:       assignment,
		InitialUnbalance: Unbalance(totals),
	}

	for result.Iterations < opts.MaxIterations {
		result.Iterations++

		if spread(totals) < opts.Tolerance {
			result.Converged = true

			break
		}

		hi, lo, mid := extremes(totals)

		moved := false

		for i, p := range powers {
			if assignment[i] != hi || p <= 0 {
				continue
			}

			receiver := totals[lo] + p
			donor := totals[hi] - p

			if receiver >= totals[hi] || receiver > max(donor, totals[mid]) {
				continue
			}

			assignment[i] = lo
			totals[hi] = donor
			totals[lo] = receiver
			moved = true

			break
		}

		if !moved {
			break
		}
	}

	result.Totals = totals
	result.Unbalance = Unbalance(totals)

	for _, phase := range assignment {
		result.Counts[phase]++
	}

	return result
}

// Unbalance returns (max-min)/max*100, or 0 when every phase is unloaded.
func Unbalance(totals [3]float64) float64 {
	hi, lo, _ := extremes(totals)
	if totals[hi] <= 0 {
		return 0
	}

	return (totals[hi] - totals[lo]) / totals[hi] * 100
}

func spread(totals [3]float64) float64 {
	avg := (totals[0] + totals[1] + totals[2]) / 3
	if avg <= 0 {
		return 0
	}

	hi, lo, _ := extremes(totals)

	return (totals[hi] - totals[lo]) / avg
}

// extremes returns the most-loaded, least-loaded and remaining phase.
// Ties resolve to the lowest phase index.
func extremes(totals [3]float64) (hi, lo, mid models.PhaseLine) {
	for p := models.L2; p <= models.L3; p++ {
		if totals[p] > totals[hi] {
			hi = p
		}

		if totals[p] < totals[lo] {
			lo = p
		}
	}

	if hi == lo {
		// all equal
		return models.L1, models.L2, models.L3
	}

	mid = 3 - hi - lo

	return hi, lo, mid
}
