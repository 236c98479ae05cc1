// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/voltgraph/pkg/cache"
	"github.com/dukex/voltgraph/pkg/config"
	"github.com/dukex/voltgraph/pkg/engine"
	"github.com/dukex/voltgraph/pkg/otelhelper"
	"github.com/dukex/voltgraph/pkg/registry"
)

func NewRegistry(log *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultTemplates()

	return reg
}

// NewMirror connects the Redis value mirror, or returns nil when url is empty.
func NewMirror(ctx context.Context, logger *slog.Logger, url string) (*cache.Redis, error) {
	if url == "" {
		return nil, nil
	}

	return cache.NewRedis(ctx, url, logger)
}

// NewEngineOptions loads the engine config and attaches a tracer when tracing is on.
// The returned shutdown function is never nil.
func NewEngineOptions(ctx context.Context, logger *slog.Logger, configPath string, tracing bool) ([]engine.Option, otelhelper.ShutdownFunc, error) {
	cfg := config.LoadEngineConfigOrDefault(configPath)

	opts := append(cfg.Options(), engine.WithLogger(logger))

	if !tracing {
		return opts, func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}

	return append(opts, engine.WithTracer(tracer)), shutdown, nil
}
