package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/urfave/cli/v3"
)

var ErrNoLoads = errors.New("at least one load power is required")

func NewBalanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Aliases:   []string{"b"},
		Usage:     "Distribute single-phase loads (kW) over L1, L2 and L3",
		ArgsUsage: "<power>...",
		Flags: []cli.Flag{
			formatFlag,
			&cli.FloatFlag{
				Name:  "tolerance",
				Usage: "Stop when (max-min)/avg falls below this ratio",
				Value: calc.DefaultBalanceTolerance,
			},
			&cli.IntFlag{
				Name:  "max-iterations",
				Usage: "Maximum number of load moves",
				Value: calc.DefaultMaxIterations,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			format, err := outputFormat(command)
			if err != nil {
				return err
			}

			powers, err := parsePowers(command.Args().Slice())
			if err != nil {
				return err
			}

			result := calc.Balance(powers, calc.BalanceOptions{
				Tolerance:     command.Float("tolerance"),
				MaxIterations: int(command.Int("max-iterations")),
			})

			newLogger(command).DebugContext(ctx, "Loads balanced",
				"loads", len(powers), "iterations", result.Iterations, "converged", result.Converged)

			if format == formatJSON {
				return writeJSON(command.Root().Writer, result)
			}

			_, err = fmt.Fprint(command.Root().Writer, renderBalance(powers, result))

			return err
		},
	}
}

func parsePowers(args []string) ([]float64, error) {
	if len(args) == 0 {
		return nil, ErrNoLoads
	}

	powers := make([]float64, 0, len(args))

	for _, arg := range args {
		p, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid load power %q: %w", arg, err)
		}

		if p < 0 {
			return nil, fmt.Errorf("invalid load power %q: must not be negative", arg)
		}

		powers = append(powers, p)
	}

	return powers, nil
}

func renderBalance(powers []float64, result models.PhaseBalance) string {
	var b strings.Builder

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("LOAD", "POWER (kW)", "PHASE")

	for i, p := range powers {
		t.Row(strconv.Itoa(i+1), strconv.FormatFloat(p, 'f', 2, 64), result.Assignment[i].String())
	}

	b.WriteString(t.String())
	b.WriteString("\n")

	for phase := models.L1; phase <= models.L3; phase++ {
		fmt.Fprintf(&b, "%s %.2f kW (%d loads)\n", phase, result.Totals[phase], result.Counts[phase])
	}

	fmt.Fprintf(&b, "unbalance %.2f%% -> %.2f%% after %d iterations", result.InitialUnbalance, result.Unbalance, result.Iterations)

	if result.Converged {
		b.WriteString(" (converged)")
	}

	b.WriteString("\n")

	return b.String()
}
