// Package web provides the HTTP handlers of the project API.
package web

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/registry"
	"github.com/dukex/voltgraph/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	projectService *services.Project
	validator      *validator.Validate
	registry       *registry.Registry
}

func NewAPIHandlers(
	projectService *services.Project,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		projectService: projectService,
		validator:      validator,
		registry:       registry,
	}
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	templates := h.registry.Templates()
	response := make([]TemplateResponse, 0, len(templates))

	for _, t := range templates {
		response = append(response, TransformTemplateResponse(t))
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetProjects(c fiber.Ctx) error {
	projects, err := h.projectService.ListProjects(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"projects":    projects,
		"total_count": len(projects),
	})
}

func (h *APIHandlers) CreateProject(c fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	serviceReq := &services.CreateProjectRequest{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
	}

	var (
		project *services.ProjectDetail
		err     error
	)

	if req.Snapshot != nil {
		project, err = h.projectService.Import(c.Context(), serviceReq, req.Snapshot)
	} else {
		project, err = h.projectService.CreateProject(c.Context(), serviceReq)
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

func (h *APIHandlers) GetProject(c fiber.Ctx) error {
	project, err := h.projectService.GetProject(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(project)
}

func (h *APIHandlers) DeleteProject(c fiber.Ctx) error {
	err := h.projectService.DeleteProject(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddNode(c fiber.Ctx) error {
	var req AddNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.projectService.AddNode(c.Context(), c.Params("id"), &services.AddNodeRequest{
		Kind:   req.Kind,
		Params: req.Params,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	nodeID, err := models.ParseNodeID(c.Params("nodeId"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.projectService.UpdateNode(c.Context(), c.Params("id"), nodeID, req.Params)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	nodeID, err := models.ParseNodeID(c.Params("nodeId"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	err = h.projectService.RemoveNode(c.Context(), c.Params("id"), nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateConnection(c fiber.Ctx) error {
	var req ConnectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	connection, err := h.projectService.Connect(c.Context(), c.Params("id"), req.Source, req.Target)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(connection)
}

func (h *APIHandlers) DeleteConnection(c fiber.Ctx) error {
	port, err := url.PathUnescape(c.Params("port"))
	if err != nil {
		return badRequest(c, "Invalid port reference")
	}

	err = h.projectService.Disconnect(c.Context(), c.Params("id"), port)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Evaluate recomputes pending nodes; ?all=true recomputes every node.
func (h *APIHandlers) Evaluate(c fiber.Ctx) error {
	all := false

	if allStr := c.Query("all"); allStr != "" {
		parsed, err := strconv.ParseBool(allStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		all = parsed
	}

	summary, err := h.projectService.Evaluate(c.Context(), c.Params("id"), all)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

func (h *APIHandlers) GetValue(c fiber.Ctx) error {
	port, err := url.PathUnescape(c.Params("port"))
	if err != nil {
		return badRequest(c, "Invalid port reference")
	}

	value, err := h.projectService.Value(c.Context(), c.Params("id"), port)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(value)
}

func (h *APIHandlers) GetSnapshot(c fiber.Ctx) error {
	snapshot, err := h.projectService.Snapshot(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(snapshot)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.projectService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "voltgraph API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "voltgraph API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
