// Package file stores projects as JSON documents on the local file system.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) dir() string {
	return filepath.Join(fp.root, "projects")
}

func (fp *Persistence) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid project id %q", id)
	}

	return filepath.Join(fp.dir(), id+".json"), nil
}

// Projects returns all stored projects ordered by creation time.
func (fp *Persistence) Projects(ctx context.Context) ([]*models.Project, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	files, err := fs.Glob(os.DirFS(fp.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list project files: %w", err)
	}

	projects := make([]*models.Project, 0, len(files))

	for _, file := range files {
		project, err := fp.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		projects = append(projects, project)
	}

	slices.SortFunc(projects, func(a, b *models.Project) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return projects, nil
}

// ProjectByID returns the project or persistence.ErrProjectNotFound.
func (fp *Persistence) ProjectByID(_ context.Context, id string) (*models.Project, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.read(id)
}

func (fp *Persistence) read(id string) (*models.Project, error) {
	filePath, err := fp.path(id)
	if err != nil {
		return nil, persistence.NewProjectError("GetByID", id, err)
	}

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewProjectError("GetByID", id, persistence.ErrProjectNotFound)
		}

		return nil, fmt.Errorf("failed to fetch project %s: %w", id, err)
	}

	var project models.Project

	err = json.Unmarshal(body, &project)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal project %s: %w", id, err)
	}

	return &project, nil
}

// SaveProject writes a project, stamping its timestamps.
func (fp *Persistence) SaveProject(_ context.Context, project *models.Project) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	filePath, err := fp.path(project.ID)
	if err != nil {
		return persistence.NewProjectError("Save", project.ID, err)
	}

	err = os.MkdirAll(fp.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create projects directory: %w", err)
	}

	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}

	project.UpdatedAt = now

	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project %s: %w", project.ID, err)
	}

	tmp := filePath + ".tmp"

	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write project %s: %w", project.ID, err)
	}

	return os.Rename(tmp, filePath)
}

// DeleteProject removes a project. Deleting a missing project is not an error.
func (fp *Persistence) DeleteProject(_ context.Context, id string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	filePath, err := fp.path(id)
	if err != nil {
		return persistence.NewProjectError("Delete", id, err)
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}

	return nil
}
