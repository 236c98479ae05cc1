package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/voltgraph/pkg/cache"
	"github.com/dukex/voltgraph/pkg/engine"
	"github.com/dukex/voltgraph/pkg/eventbus"
	"github.com/dukex/voltgraph/pkg/events"
	"github.com/dukex/voltgraph/pkg/graph"
	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/persistence"
	"github.com/dukex/voltgraph/pkg/protocol"
	"github.com/dukex/voltgraph/pkg/registry"
	"github.com/dukex/voltgraph/pkg/workspace"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateProjectRequest represents the request to create a new project.
type CreateProjectRequest struct {
	ID          string `json:"id" validate:"omitempty,uuid4"`
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

// AddNodeRequest represents the request to add a node to a project graph.
type AddNodeRequest struct {
	Kind   models.NodeKind `json:"kind" validate:"required"`
	Params map[string]any  `json:"params"`
}

// NodeView is a node as seen by API callers.
type NodeView struct {
	ID      models.NodeID     `json:"id"`
	Label   string            `json:"label"`
	Kind    models.NodeKind   `json:"kind"`
	Name    string            `json:"name"`
	State   models.NodeState  `json:"state"`
	Params  models.Payload    `json:"params"`
	Inputs  []models.PortSpec `json:"inputs"`
	Outputs []models.PortSpec `json:"outputs"`
}

// ProjectDetail is a project with its live graph.
type ProjectDetail struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Nodes       []NodeView          `json:"nodes"`
	Connections []models.Connection `json:"connections"`
	Pending     []models.NodeID     `json:"pending"`
}

// ValueView is a cached output value and the state of the node producing it.
type ValueView struct {
	Port  models.PortRef   `json:"port"`
	State models.NodeState `json:"state"`
	Value models.Value     `json:"value"`
}

// Project handles project graphs: it keeps one workspace per loaded project
// and persists a snapshot after every change.
type Project struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
	mirror      *cache.Redis
	engineOpts  []engine.Option
	validate    *validator.Validate

	mu     sync.Mutex
	loaded map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	ws      *workspace.Workspace
	project *models.Project
}

type ProjectOption func(*Project)

func WithPublisher(p eventbus.EventPublisher) ProjectOption {
	return func(s *Project) { s.publisher = p }
}

// WithMirror stores evaluated values in Redis and serves value reads from it
// for projects that are not loaded.
func WithMirror(m *cache.Redis) ProjectOption {
	return func(s *Project) { s.mirror = m }
}

func WithRegistry(r *registry.Registry) ProjectOption {
	return func(s *Project) { s.registry = r }
}

func WithEngineOptions(opts ...engine.Option) ProjectOption {
	return func(s *Project) { s.engineOpts = append(s.engineOpts, opts...) }
}

// NewProject creates a new project service.
func NewProject(logger *slog.Logger, persistence persistence.Persistence, opts ...ProjectOption) *Project {
	s := &Project{
		logger:      logger.With("module", "project_service"),
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		loaded:      make(map[string]*entry),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = registry.NewRegistry(logger)
		s.registry.RegisterDefaultTemplates()
	}

	return s
}

// HealthCheck checks the health of the persistence layer.
func (s *Project) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Templates lists the node templates in kind order.
func (s *Project) Templates() []protocol.NodeTemplate {
	return s.registry.Templates()
}

func (s *Project) newWorkspace(id, name string) *workspace.Workspace {
	opts := []workspace.Option{
		workspace.WithID(id),
		workspace.WithName(name),
		workspace.WithLogger(s.logger),
		workspace.WithRegistry(s.registry),
		workspace.WithEngineOptions(s.engineOpts...),
	}

	if s.publisher != nil {
		opts = append(opts, workspace.WithPublisher(s.publisher))
	}

	return workspace.New(opts...)
}

// CreateProject creates an empty project.
func (s *Project) CreateProject(ctx context.Context, req *CreateProjectRequest) (*ProjectDetail, error) {
	if req == nil {
		return nil, NewValidationError("create_project", "INVALID_REQUEST", "request cannot be nil", ErrInvalidRequest)
	}

	if req.Name == "" {
		return nil, NewValidationError("create_project", "NAME_REQUIRED", "project name is required", ErrProjectNameMissing)
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("create_project", "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loaded[id]; ok {
		return nil, wrap("create_project", fmt.Errorf("%w: %s", ErrProjectExists, id))
	}

	_, err := s.persistence.ProjectByID(ctx, id)
	if err == nil {
		return nil, wrap("create_project", fmt.Errorf("%w: %s", ErrProjectExists, id))
	}

	if !persistence.IsProjectNotFound(err) {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}

	e := &entry{
		ws:      s.newWorkspace(id, req.Name),
		project: &models.Project{ID: id, Name: req.Name, Description: req.Description},
	}

	if err := s.persist(ctx, e); err != nil {
		return nil, err
	}

	s.loaded[id] = e

	s.publish(ctx, &events.ProjectCreated{
		BaseEvent: events.NewBaseEvent(events.ProjectCreatedEvent, id),
		Name:      req.Name,
	})

	s.logger.InfoContext(ctx, "Project created", "project_id", id)

	return e.detail(), nil
}

// ListProjects returns stored projects without their snapshots.
func (s *Project) ListProjects(ctx context.Context) ([]*models.Project, error) {
	projects, err := s.persistence.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	for i, p := range projects {
		light := *p
		light.Snapshot = nil
		projects[i] = &light
	}

	return projects, nil
}

// GetProject returns the project with its live graph.
func (s *Project) GetProject(ctx context.Context, id string) (*ProjectDetail, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.detail(), nil
}

// DeleteProject removes a project, its stored snapshot and its mirrored values.
func (s *Project) DeleteProject(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.loaded, id)
	s.mu.Unlock()

	if err := s.persistence.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.Evict(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "Failed to evict mirrored values", "project_id", id, "error", err)
		}
	}

	s.publish(ctx, &events.ProjectDeleted{
		BaseEvent: events.NewBaseEvent(events.ProjectDeletedEvent, id),
	})

	s.logger.InfoContext(ctx, "Project deleted", "project_id", id)

	return nil
}

// AddNode adds a node built from the kind's template defaults merged with params.
func (s *Project) AddNode(ctx context.Context, projectID string, req *AddNodeRequest) (*NodeView, error) {
	if req == nil {
		return nil, NewValidationError("add_node", "INVALID_REQUEST", "request cannot be nil", ErrInvalidRequest)
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("add_node", "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	var view *NodeView

	err := s.mutate(ctx, projectID, "add_node", func(ws *workspace.Workspace) error {
		id, err := ws.AddNode(req.Kind, req.Params)
		if err != nil {
			return err
		}

		view = nodeView(ws, id)

		return nil
	})

	return view, err
}

// UpdateNode merges params into a node's parameters.
func (s *Project) UpdateNode(ctx context.Context, projectID string, nodeID models.NodeID, params map[string]any) (*NodeView, error) {
	var view *NodeView

	err := s.mutate(ctx, projectID, "update_node", func(ws *workspace.Workspace) error {
		if _, err := ws.UpdateParams(nodeID, params); err != nil {
			return err
		}

		view = nodeView(ws, nodeID)

		return nil
	})

	return view, err
}

// RemoveNode deletes a node and its connections.
func (s *Project) RemoveNode(ctx context.Context, projectID string, nodeID models.NodeID) error {
	return s.mutate(ctx, projectID, "remove_node", func(ws *workspace.Workspace) error {
		return ws.RemoveNode(nodeID)
	})
}

// Connect wires an output port to an input port. Ports are given as "{node}:{port}".
func (s *Project) Connect(ctx context.Context, projectID, source, target string) (*models.Connection, error) {
	src, err := parsePort("connect", source)
	if err != nil {
		return nil, err
	}

	dst, err := parsePort("connect", target)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, projectID, "connect", func(ws *workspace.Workspace) error {
		return ws.Connect(src, dst)
	})
	if err != nil {
		return nil, err
	}

	return &models.Connection{Source: src, Target: dst}, nil
}

// Disconnect removes the connection feeding the target input port.
func (s *Project) Disconnect(ctx context.Context, projectID, target string) error {
	dst, err := parsePort("disconnect", target)
	if err != nil {
		return err
	}

	return s.mutate(ctx, projectID, "disconnect", func(ws *workspace.Workspace) error {
		return ws.Disconnect(dst)
	})
}

// Evaluate recomputes the pending nodes, or every node when all is set.
func (s *Project) Evaluate(ctx context.Context, projectID string, all bool) (*engine.Summary, error) {
	e, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var report *engine.Report

	if all {
		report, err = e.ws.EvaluateAll(ctx)
	} else {
		report, err = e.ws.Evaluate(ctx)
	}

	if err != nil {
		return nil, wrap("evaluate", err)
	}

	if err := s.persist(ctx, e); err != nil {
		return nil, err
	}

	s.mirrorValues(ctx, projectID, e.ws)

	summary := report.Summary()

	return &summary, nil
}

// Value returns the cached value of an output port.
func (s *Project) Value(ctx context.Context, projectID, port string) (*ValueView, error) {
	ref, err := parsePort("value", port)
	if err != nil {
		return nil, err
	}

	if view, ok := s.mirrored(ctx, projectID, ref); ok {
		return view, nil
	}

	e, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	node, ok := e.ws.Node(ref.Node)
	if !ok {
		return nil, wrap("value", fmt.Errorf("%w: %s", graph.ErrNotFound, ref.Node))
	}

	if _, ok := node.Output(ref.Port); !ok {
		return nil, wrap("value", fmt.Errorf("%w: %s", graph.ErrPortNotFound, ref))
	}

	state := e.ws.State(ref.Node)

	v, ok := e.ws.Value(ref)
	if !ok {
		return nil, wrap("value", fmt.Errorf("%w: %s is %s", ErrValueNotFound, ref, state))
	}

	return &ValueView{Port: ref, State: state, Value: v}, nil
}

// mirrored serves a value from Redis when the project is not loaded here.
// Only ready nodes have cached values, so a mirror hit is always ready.
func (s *Project) mirrored(ctx context.Context, projectID string, ref models.PortRef) (*ValueView, bool) {
	if s.mirror == nil {
		return nil, false
	}

	s.mu.Lock()
	_, loaded := s.loaded[projectID]
	s.mu.Unlock()

	if loaded {
		return nil, false
	}

	v, ok, err := s.mirror.Get(ctx, projectID, ref)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read mirrored value", "project_id", projectID, "port", ref, "error", err)

		return nil, false
	}

	if !ok {
		return nil, false
	}

	return &ValueView{Port: ref, State: models.NodeReady, Value: v}, true
}

// Snapshot returns a consistent snapshot of the project graph.
func (s *Project) Snapshot(ctx context.Context, projectID string) (*models.Snapshot, error) {
	e, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.ws.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot project: %w", err)
	}

	return snap, nil
}

// Import creates a project from an existing snapshot. The snapshot is
// checked before anything is stored.
func (s *Project) Import(ctx context.Context, req *CreateProjectRequest, snap *models.Snapshot) (*ProjectDetail, error) {
	if snap == nil {
		return nil, NewValidationError("import", "INVALID_REQUEST", "snapshot cannot be nil", ErrInvalidRequest)
	}

	scratch := workspace.New(workspace.WithLogger(s.logger), workspace.WithRegistry(s.registry))
	if err := scratch.Restore(snap); err != nil {
		return nil, NewValidationError("import", "INVALID_SNAPSHOT", err.Error(), ErrInvalidSnapshot)
	}

	detail, err := s.CreateProject(ctx, req)
	if err != nil {
		return nil, err
	}

	snap.ProjectID = detail.ID
	snap.Name = detail.Name

	err = s.mutate(ctx, detail.ID, "import", func(ws *workspace.Workspace) error {
		return ws.Restore(snap)
	})
	if err != nil {
		s.discard(ctx, detail.ID)

		return nil, err
	}

	return s.GetProject(ctx, detail.ID)
}

// discard drops a project whose creation could not be completed.
func (s *Project) discard(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.loaded, id)
	s.mu.Unlock()

	if err := s.persistence.DeleteProject(ctx, id); err != nil && !persistence.IsProjectNotFound(err) {
		s.logger.ErrorContext(ctx, "Failed to discard project", "project_id", id, "error", err)
	}
}

func (s *Project) load(ctx context.Context, id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.loaded[id]; ok {
		return e, nil
	}

	project, err := s.persistence.ProjectByID(ctx, id)
	if err != nil {
		if persistence.IsProjectNotFound(err) {
			return nil, wrap("load_project", err)
		}

		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	ws := s.newWorkspace(project.ID, project.Name)

	if project.Snapshot != nil {
		if err := ws.Restore(project.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to restore project %s: %w", id, err)
		}
	}

	e := &entry{ws: ws, project: project}
	s.loaded[id] = e

	s.logger.DebugContext(ctx, "Project loaded", "project_id", id, "nodes", len(ws.Nodes()))

	return e, nil
}

// mutate applies fn to the project workspace and persists the result.
func (s *Project) mutate(ctx context.Context, projectID, op string, fn func(ws *workspace.Workspace) error) error {
	e, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.ws); err != nil {
		return wrap(op, err)
	}

	if err := s.persist(ctx, e); err != nil {
		return err
	}

	// The change purged stale outputs from the workspace cache.
	s.mirrorValues(ctx, projectID, e.ws)

	return nil
}

// mirrorValues replaces the mirrored values with the workspace cache. When
// the write fails the project is evicted so readers never see stale values.
func (s *Project) mirrorValues(ctx context.Context, projectID string, ws *workspace.Workspace) {
	if s.mirror == nil {
		return
	}

	err := s.mirror.Store(ctx, projectID, ws.Values())
	if err == nil {
		return
	}

	s.logger.WarnContext(ctx, "Failed to mirror values", "project_id", projectID, "error", err)

	if err := s.mirror.Evict(ctx, projectID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to evict mirrored values", "project_id", projectID, "error", err)
	}
}

func (s *Project) persist(ctx context.Context, e *entry) error {
	snap, err := e.ws.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot project: %w", err)
	}

	e.project.Name = e.ws.Name()
	e.project.Snapshot = snap

	if err := s.persistence.SaveProject(ctx, e.project); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	return nil
}

func (s *Project) publish(ctx context.Context, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := eventbus.PublishProjectEvent(ctx, s.publisher, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *entry) detail() *ProjectDetail {
	nodes := e.ws.Nodes()
	views := make([]NodeView, 0, len(nodes))

	for _, n := range nodes {
		views = append(views, *nodeView(e.ws, n.ID))
	}

	pending := e.ws.Pending()
	ids := pending.IDs()

	if pending.All() {
		ids = make([]models.NodeID, 0, len(nodes))
		for _, n := range nodes {
			ids = append(ids, n.ID)
		}
	}

	return &ProjectDetail{
		ID:          e.project.ID,
		Name:        e.project.Name,
		Description: e.project.Description,
		CreatedAt:   e.project.CreatedAt,
		UpdatedAt:   e.project.UpdatedAt,
		Nodes:       views,
		Connections: e.ws.Connections(),
		Pending:     ids,
	}
}

func nodeView(ws *workspace.Workspace, id models.NodeID) *NodeView {
	n, ok := ws.Node(id)
	if !ok {
		return nil
	}

	return &NodeView{
		ID:      n.ID,
		Label:   ws.Label(n.ID),
		Kind:    n.Kind,
		Name:    n.Name(),
		State:   ws.State(n.ID),
		Params:  n.Payload,
		Inputs:  n.Inputs,
		Outputs: n.Outputs,
	}
}

func parsePort(op, s string) (models.PortRef, error) {
	ref, err := models.ParsePortRef(s)
	if err != nil {
		return models.PortRef{}, NewValidationError(op, "INVALID_PORT", err.Error(), ErrInvalidPort)
	}

	return ref, nil
}
