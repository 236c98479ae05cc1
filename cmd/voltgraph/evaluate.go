package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dukex/voltgraph/pkg/engine"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/urfave/cli/v3"
)

var ErrEvaluationFailed = errors.New("evaluation failed")

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	readyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// NodeReport is the evaluated state of one node.
type NodeReport struct {
	ID       models.NodeID           `json:"id"`
	Key      string                  `json:"key"`
	Label    string                  `json:"label"`
	Kind     models.NodeKind         `json:"kind"`
	Name     string                  `json:"name"`
	State    models.NodeState        `json:"state"`
	Error    string                  `json:"error,omitempty"`
	Warnings []string                `json:"warnings,omitempty"`
	Outputs  map[string]models.Value `json:"outputs,omitempty"`
}

// ProjectReport is the output of the evaluate command.
type ProjectReport struct {
	Project string         `json:"project"`
	Summary engine.Summary `json:"summary"`
	Nodes   []NodeReport   `json:"nodes"`
}

func NewEvaluateCommand() *cli.Command {
	return &cli.Command{
		Name:      "evaluate",
		Aliases:   []string{"eval", "e"},
		Usage:     "Evaluate a YAML or HCL project file and print the results",
		ArgsUsage: "<project-file>",
		Flags:     append([]cli.Flag{formatFlag}, engineFlags...),
		Action: func(ctx context.Context, command *cli.Command) error {
			format, err := outputFormat(command)
			if err != nil {
				return err
			}

			logger := newLogger(command)

			project, err := loadProject(ctx, logger, command)
			if err != nil {
				return err
			}

			defer func() {
				if err := project.shutdown(context.Background()); err != nil {
					logger.ErrorContext(ctx, "Failed to shut down tracer", "error", err)
				}
			}()

			report, err := project.ws.Evaluate(ctx)
			if err != nil {
				return err
			}

			result := buildReport(project, report)
			out := command.Root().Writer

			if format == formatJSON {
				err = writeJSON(out, result)
			} else {
				err = writeReport(out, result)
			}

			if err != nil {
				return err
			}

			if failed := len(result.Summary.Failed); failed > 0 {
				return fmt.Errorf("%w: %d node(s) failed", ErrEvaluationFailed, failed)
			}

			return nil
		},
	}
}

func buildReport(project *loadedProject, report *engine.Report) ProjectReport {
	result := ProjectReport{
		Project: project.file.Name,
		Summary: report.Summary(),
	}

	for _, node := range project.ws.Nodes() {
		nr := NodeReport{
			ID:    node.ID,
			Key:   project.keys[node.ID],
			Label: project.ws.Label(node.ID),
			Kind:  node.Kind,
			Name:  node.Payload.DisplayName(),
			State: project.ws.State(node.ID),
		}

		if outcome, ok := report.Outcome(node.ID); ok {
			nr.Warnings = outcome.Warnings

			if outcome.Err != nil {
				nr.Error = outcome.Err.Error()
			}
		}

		for _, spec := range node.Outputs {
			v, ok := project.ws.Value(models.PortRef{Node: node.ID, Port: spec.Name})
			if !ok {
				continue
			}

			if nr.Outputs == nil {
				nr.Outputs = make(map[string]models.Value)
			}

			nr.Outputs[spec.Name] = v
		}

		result.Nodes = append(result.Nodes, nr)
	}

	return result
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func writeReport(w io.Writer, result ProjectReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("Project %s", result.Project)))
	fmt.Fprintf(&b, "evaluated %d of %d planned, %d succeeded, %d failed in %dms\n\n",
		len(result.Summary.Evaluated), result.Summary.Planned, result.Summary.Succeeded,
		len(result.Summary.Failed), result.Summary.DurationMS)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NODE", "KEY", "KIND", "NAME", "STATE", "RESULT")

	for _, n := range result.Nodes {
		t.Row(n.Label, n.Key, string(n.Kind), n.Name, renderState(n.State), scalarOutputs(n.Outputs))
	}

	b.WriteString(t.String())
	b.WriteString("\n")

	for _, n := range result.Nodes {
		if n.Error != "" {
			fmt.Fprintf(&b, "%s %s: %s\n", failedStyle.Render("error"), n.Label, n.Error)
		}

		for _, warning := range n.Warnings {
			fmt.Fprintf(&b, "%s %s: %s\n", warningStyle.Render("warning"), n.Label, warning)
		}
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func renderState(state models.NodeState) string {
	switch state {
	case models.NodeReady:
		return readyStyle.Render(string(state))
	case models.NodeFailed:
		return failedStyle.Render(string(state))
	default:
		return string(state)
	}
}

// scalarOutputs renders numeric outputs as "port=value" in port name order.
func scalarOutputs(outputs map[string]models.Value) string {
	ports := make([]string, 0, len(outputs))

	for port, v := range outputs {
		if v.Kind.Scalar() {
			ports = append(ports, port)
		}
	}

	slices.Sort(ports)

	parts := make([]string, 0, len(ports))
	for _, port := range ports {
		parts = append(parts, fmt.Sprintf("%s=%.2f", port, outputs[port].Number))
	}

	return strings.Join(parts, " ")
}
