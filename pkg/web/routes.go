package web

import "github.com/gofiber/fiber/v3"

// Register mounts the template and project routes on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/templates", h.GetTemplates)
	router.Get("/health", h.HealthCheck)

	p := router.Group("/projects")
	p.Get("/", h.GetProjects)
	p.Post("/", h.CreateProject)
	p.Get("/:id", h.GetProject)
	p.Delete("/:id", h.DeleteProject)
	p.Post("/:id/evaluate", h.Evaluate)
	p.Get("/:id/snapshot", h.GetSnapshot)
	p.Get("/:id/values/:port", h.GetValue)

	p.Post("/:id/nodes", h.AddNode)
	p.Patch("/:id/nodes/:nodeId", h.UpdateNode)
	p.Delete("/:id/nodes/:nodeId", h.DeleteNode)

	p.Post("/:id/connections", h.CreateConnection)
	p.Delete("/:id/connections/:port", h.DeleteConnection)
}
