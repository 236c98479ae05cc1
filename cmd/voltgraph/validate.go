package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Build a project file and resolve its evaluation order without evaluating",
		ArgsUsage: "<project-file>",
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := newLogger(command)

			project, err := loadProject(ctx, logger, command)
			if err != nil {
				return err
			}

			defer func() { _ = project.shutdown(context.Background()) }()

			order, err := project.ws.Order()
			if err != nil {
				return err
			}

			labels := make([]string, 0, len(order))
			for _, id := range order {
				labels = append(labels, project.ws.Label(id))
			}

			_, err = fmt.Fprintf(command.Root().Writer, "%s: %d nodes, %d connections\norder: %s\n",
				project.file.Name, len(order), len(project.ws.Connections()), strings.Join(labels, " -> "))

			return err
		},
	}
}
