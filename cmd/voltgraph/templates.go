package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dukex/voltgraph/pkg/cmd"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/web"
	"github.com/urfave/cli/v3"
)

func NewTemplatesCommand() *cli.Command {
	return &cli.Command{
		Name:    "templates",
		Aliases: []string{"t"},
		Usage:   "List the available node kinds",
		Flags:   []cli.Flag{formatFlag},
		Action: func(ctx context.Context, command *cli.Command) error {
			format, err := outputFormat(command)
			if err != nil {
				return err
			}

			templates := cmd.NewRegistry(newLogger(command)).Templates()

			responses := make([]web.TemplateResponse, 0, len(templates))
			for _, t := range templates {
				responses = append(responses, web.TransformTemplateResponse(t))
			}

			if format == formatJSON {
				return writeJSON(command.Root().Writer, responses)
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("KIND", "PREFIX", "INPUTS", "OUTPUTS", "DESCRIPTION")

			for _, r := range responses {
				t.Row(string(r.Kind), r.IDPrefix, portNames(r.Inputs), portNames(r.Outputs), r.Description)
			}

			_, err = fmt.Fprintln(command.Root().Writer, t.String())

			return err
		},
	}
}

func portNames(ports []models.PortSpec) string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}

	return strings.Join(names, ", ")
}
