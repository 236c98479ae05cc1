// Package main provides the voltgraph API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/voltgraph/pkg/eventbus"
	"github.com/dukex/voltgraph/pkg/events"
	"github.com/dukex/voltgraph/pkg/registry"
	"github.com/dukex/voltgraph/pkg/services"
	"github.com/dukex/voltgraph/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger         *slog.Logger
	projectService *services.Project
	registry       *registry.Registry
	eventBus       eventbus.EventBus
	validate       *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	projectService *services.Project,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:         logger,
		projectService: projectService,
		registry:       registry,
		eventBus:       eventBus,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.projectService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("voltgraph API")
	})

	handlers.Register(app)

	return app
}

// Watch logs evaluation outcomes published on the event bus.
func (a *API) Watch(ctx context.Context) error {
	if a.eventBus == nil {
		return nil
	}

	err := a.eventBus.Handle(events.EvaluationCompletedEvent, func(ctx context.Context, event any) error {
		completed, ok := event.(*events.EvaluationCompleted)
		if !ok {
			return nil
		}

		a.logger.InfoContext(ctx, "Evaluation completed",
			"project_id", completed.ProjectID,
			"run_id", completed.RunID,
			"evaluated", completed.Evaluated,
			"failed", completed.Failed,
		)

		return nil
	})
	if err != nil {
		return err
	}

	err = a.eventBus.Handle(events.NodeFailedEvent, func(ctx context.Context, event any) error {
		failed, ok := event.(*events.NodeFailed)
		if !ok {
			return nil
		}

		a.logger.WarnContext(ctx, "Node failed",
			"project_id", failed.ProjectID,
			"node_id", failed.NodeID,
			"kind", failed.Kind,
			"error", failed.Error,
		)

		return nil
	})
	if err != nil {
		return err
	}

	return a.eventBus.Subscribe(ctx)
}

// Start serves until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shut down API", "error", err)
		}
	}()

	return app.Listen(":" + strconv.Itoa(port))
}
