// Package registry holds the node templates the graph store and engine build nodes from.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/protocol"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrUnknownKind   = errors.New("node kind not registered")
	ErrInvalidParams = errors.New("invalid node parameters")
)

type Registry struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	templates map[models.NodeKind]protocol.NodeTemplate
	validate  *validator.Validate
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log,
		templates: make(map[models.NodeKind]protocol.NodeTemplate),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterTemplate adds or replaces the template for its kind.
func (r *Registry) RegisterTemplate(template protocol.NodeTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.templates[template.Kind()] = template
	r.logger.Debug("Registered node template", "kind", template.Kind(), "name", template.Name())
}

// HealthCheck reports whether every node kind has a template.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, kind := range models.Kinds() {
		if _, ok := r.templates[kind]; !ok {
			return fmt.Sprintf("Registry is missing template %q", kind), false
		}
	}

	return "Registry is healthy", true
}

// Template returns the template registered for kind.
func (r *Registry) Template(kind models.NodeKind) (protocol.NodeTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	template, ok := r.templates[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return template, nil
}

// Templates returns registered templates in kind order.
func (r *Registry) Templates() []protocol.NodeTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]protocol.NodeTemplate, 0, len(r.templates))
	for _, kind := range models.Kinds() {
		if t, ok := r.templates[kind]; ok {
			templates = append(templates, t)
		}
	}

	return templates
}

// Ports lays out the ports of a node. It satisfies graph.PortLayout.
func (r *Registry) Ports(kind models.NodeKind, payload models.Payload) ([]models.PortSpec, []models.PortSpec, error) {
	template, err := r.Template(kind)
	if err != nil {
		return nil, nil, err
	}

	return template.Inputs(payload), template.Outputs(), nil
}

// Label renders the display label of a node, e.g. "CIR-3".
func (r *Registry) Label(kind models.NodeKind, id models.NodeID) string {
	template, err := r.Template(kind)
	if err != nil {
		return id.String()
	}

	return template.IDPrefix() + "-" + id.String()
}

// DecodeParams merges raw parameters over the template defaults, validates
// them against the template schema and returns the typed payload.
func (r *Registry) DecodeParams(kind models.NodeKind, raw map[string]any) (models.Payload, error) {
	template, err := r.Template(kind)
	if err != nil {
		return nil, err
	}

	return r.merge(template, template.Defaults(), raw)
}

// MergeParams applies a partial update to an existing payload.
func (r *Registry) MergeParams(current models.Payload, raw map[string]any) (models.Payload, error) {
	template, err := r.Template(current.Kind())
	if err != nil {
		return nil, err
	}

	return r.merge(template, current, raw)
}

// ValidatePayload checks a typed payload against schema and struct rules.
func (r *Registry) ValidatePayload(payload models.Payload) error {
	template, err := r.Template(payload.Kind())
	if err != nil {
		return err
	}

	data, err := toMap(payload)
	if err != nil {
		return err
	}

	return r.check(template, payload, data)
}

func (r *Registry) merge(template protocol.NodeTemplate, base models.Payload, raw map[string]any) (models.Payload, error) {
	merged, err := toMap(base)
	if err != nil {
		return nil, err
	}

	for k, v := range raw {
		merged[k] = v
	}

	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	payload, err := models.DecodePayload(template.Kind(), encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	if err := r.check(template, payload, merged); err != nil {
		return nil, err
	}

	return payload, nil
}

func (r *Registry) check(template protocol.NodeTemplate, payload models.Payload, data map[string]any) error {
	if err := validateJSONSchema(data, template.Schema()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	if err := r.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	return nil
}

func toMap(payload models.Payload) (map[string]any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(encoded, &m); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}

	return m, nil
}

// validateJSONSchema validates parameter data against a template schema.
func validateJSONSchema(data map[string]any, schema map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}

		return fmt.Errorf("JSON schema validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
