package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/voltgraph/pkg/cmd"
	"github.com/dukex/voltgraph/pkg/config"
	"github.com/dukex/voltgraph/pkg/engine"
	"github.com/dukex/voltgraph/pkg/log"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/workspace"
	"github.com/urfave/cli/v3"
)

var (
	ErrMissingProjectFile = errors.New("missing project file argument")
	ErrUnknownOutput      = errors.New("unknown output format")
)

const (
	formatText = "text"
	formatJSON = "json"
)

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Usage:   "Output format (text, json)",
	Value:   formatText,
}

var engineFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the engine configuration YAML",
		Sources: cli.EnvVars("VOLTGRAPH_CONFIG"),
	},
	&cli.IntFlag{
		Name:  "parallel",
		Usage: "Evaluate independent nodes with this many workers (0 keeps the configured mode)",
	},
	&cli.BoolFlag{
		Name:    "tracing",
		Usage:   "Export evaluation traces over OTLP/HTTP",
		Sources: cli.EnvVars("VOLTGRAPH_TRACING"),
	},
}

// loadedProject is a project file applied to a fresh workspace.
type loadedProject struct {
	file     *config.ProjectFile
	ws       *workspace.Workspace
	keys     map[models.NodeID]string
	shutdown func(context.Context) error
}

func newLogger(command *cli.Command) *slog.Logger {
	root := command.Root()

	w := root.ErrWriter
	if w == nil {
		w = os.Stderr
	}

	return log.New(w, root.String("log-level"), root.String("log-format")).With("module", "cli")
}

func outputFormat(command *cli.Command) (string, error) {
	switch format := command.String("format"); format {
	case formatText, formatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOutput, format)
	}
}

// loadProject reads the file named by the first argument and builds its graph.
func loadProject(ctx context.Context, logger *slog.Logger, command *cli.Command) (*loadedProject, error) {
	path := command.Args().First()
	if path == "" {
		return nil, ErrMissingProjectFile
	}

	file, err := config.LoadProject(path)
	if err != nil {
		return nil, err
	}

	opts, shutdown, err := cmd.NewEngineOptions(ctx, logger, command.String("config"), command.Bool("tracing"))
	if err != nil {
		return nil, fmt.Errorf("failed to configure engine: %w", err)
	}

	if workers := int(command.Int("parallel")); workers > 0 {
		opts = append(opts, engine.WithParallel(workers))
	}

	ws := workspace.New(
		workspace.WithName(file.Name),
		workspace.WithLogger(logger),
		workspace.WithRegistry(cmd.NewRegistry(logger)),
		workspace.WithEngineOptions(opts...),
	)

	ids, err := file.Apply(ws)
	if err != nil {
		_ = shutdown(ctx)

		return nil, fmt.Errorf("failed to build %s: %w", path, err)
	}

	keys := make(map[models.NodeID]string, len(ids))
	for key, id := range ids {
		keys[id] = key
	}

	logger.DebugContext(ctx, "Project loaded", "path", path, "nodes", len(ids), "connections", len(file.Connections))

	return &loadedProject{file: file, ws: ws, keys: keys, shutdown: shutdown}, nil
}
