package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/voltgraph/pkg/models"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("unknown project file format")
	ErrDuplicateKey  = errors.New("duplicate node key")
	ErrUnknownKey    = errors.New("unknown node key")
	ErrInvalidPort   = errors.New("invalid port reference")
)

// ProjectFile describes a graph by node keys. Nodes are added in file order.
type ProjectFile struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Nodes       []NodeDecl       `yaml:"nodes"`
	Connections []ConnectionDecl `yaml:"connections"`
}

type NodeDecl struct {
	Key    string          `yaml:"key"`
	Kind   models.NodeKind `yaml:"kind"`
	Params map[string]any  `yaml:"params"`
}

// ConnectionDecl wires "key.port" to "key.port".
type ConnectionDecl struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Builder is the part of a workspace a project file is applied to.
type Builder interface {
	AddNode(kind models.NodeKind, params map[string]any) (models.NodeID, error)
	Connect(source, target models.PortRef) error
}

// LoadProject reads a .yaml/.yml or .hcl project file.
func LoadProject(path string) (*ProjectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseProjectYAML(data)
	case ".hcl":
		return ParseProjectHCL(data, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ParseProjectYAML decodes a YAML project document.
func ParseProjectYAML(data []byte) (*ProjectFile, error) {
	var file ProjectFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML project: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}

	return &file, nil
}

// Validate checks keys and connection endpoints without building anything.
func (f *ProjectFile) Validate() error {
	keys := make(map[string]struct{}, len(f.Nodes))

	for i, n := range f.Nodes {
		if n.Key == "" {
			return fmt.Errorf("nodes[%d]: key is required", i)
		}

		if strings.Contains(n.Key, ".") {
			return fmt.Errorf("nodes[%d]: key %q must not contain '.'", i, n.Key)
		}

		if !n.Kind.Valid() {
			return fmt.Errorf("nodes[%d]: unknown kind %q", i, n.Kind)
		}

		if _, ok := keys[n.Key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, n.Key)
		}

		keys[n.Key] = struct{}{}
	}

	for i, c := range f.Connections {
		for _, end := range []string{c.From, c.To} {
			key, _, err := splitPort(end)
			if err != nil {
				return fmt.Errorf("connections[%d]: %w", i, err)
			}

			if _, ok := keys[key]; !ok {
				return fmt.Errorf("connections[%d]: %w: %s", i, ErrUnknownKey, key)
			}
		}
	}

	return nil
}

// Apply adds every node and connection to b and returns the handle issued for each key.
func (f *ProjectFile) Apply(b Builder) (map[string]models.NodeID, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	ids := make(map[string]models.NodeID, len(f.Nodes))

	for _, n := range f.Nodes {
		id, err := b.AddNode(n.Kind, n.Params)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Key, err)
		}

		ids[n.Key] = id
	}

	for _, c := range f.Connections {
		source, err := resolvePort(ids, c.From)
		if err != nil {
			return nil, err
		}

		target, err := resolvePort(ids, c.To)
		if err != nil {
			return nil, err
		}

		if err := b.Connect(source, target); err != nil {
			return nil, fmt.Errorf("connection %s -> %s: %w", c.From, c.To, err)
		}
	}

	return ids, nil
}

func splitPort(ref string) (string, string, error) {
	key, port, ok := strings.Cut(ref, ".")
	if !ok || key == "" || port == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPort, ref)
	}

	return key, port, nil
}

func resolvePort(ids map[string]models.NodeID, ref string) (models.PortRef, error) {
	key, port, err := splitPort(ref)
	if err != nil {
		return models.PortRef{}, err
	}

	id, ok := ids[key]
	if !ok {
		return models.PortRef{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	return models.PortRef{Node: id, Port: port}, nil
}
