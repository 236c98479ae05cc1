// Package postgresql provides PostgreSQL-based persistence for projects.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/persistence"
	"github.com/dukex/voltgraph/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence.Persistence interface for PostgreSQL.
type Persistence struct {
	db               *sql.DB
	logger           *slog.Logger
	migrationManager *sqlbase.MigrationManager
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	postgres := &Persistence{
		db:               db,
		logger:           logger.With("module", "postgresql_persistence"),
		migrationManager: sqlbase.NewMigrationManager(logger, db, projectMigrations()),
	}

	err = postgres.migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}

// HealthCheck checks if the database is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Projects returns all projects ordered by creation time.
func (p *Persistence) Projects(ctx context.Context) ([]*models.Project, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, description, snapshot, created_at, updated_at
		FROM projects
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	defer func() { _ = rows.Close() }()

	projects := make([]*models.Project, 0)

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}

		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// ProjectByID returns the project or persistence.ErrProjectNotFound.
func (p *Persistence) ProjectByID(ctx context.Context, id string) (*models.Project, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, description, snapshot, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, id)

	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewProjectError("GetByID", id, persistence.ErrProjectNotFound)
	}

	if err != nil {
		return nil, persistence.NewProjectError("GetByID", id, err)
	}

	return project, nil
}

// SaveProject upserts a project and its snapshot.
func (p *Persistence) SaveProject(ctx context.Context, project *models.Project) error {
	var (
		snapshot  []byte
		nodeCount int
	)

	if project.Snapshot != nil {
		encoded, err := json.Marshal(project.Snapshot)
		if err != nil {
			return persistence.NewProjectError("Save", project.ID, fmt.Errorf("failed to marshal snapshot: %w", err))
		}

		snapshot = encoded
		nodeCount = len(project.Snapshot.Nodes)
	}

	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}

	project.UpdatedAt = now

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, snapshot, node_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			snapshot = EXCLUDED.snapshot,
			node_count = EXCLUDED.node_count,
			updated_at = EXCLUDED.updated_at
	`, project.ID, project.Name, project.Description, nullableJSON(snapshot), nodeCount, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return persistence.NewProjectError("Save", project.ID, err)
	}

	p.logger.DebugContext(ctx, "Project saved", "project_id", project.ID, "nodes", nodeCount)

	return nil
}

// DeleteProject removes a project. Deleting a missing project is not an error.
func (p *Persistence) DeleteProject(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return persistence.NewProjectError("Delete", id, err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	var (
		project  models.Project
		snapshot []byte
	)

	err := row.Scan(&project.ID, &project.Name, &project.Description, &snapshot, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(snapshot) > 0 {
		project.Snapshot = &models.Snapshot{}

		if err := json.Unmarshal(snapshot, project.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot of project %s: %w", project.ID, err)
		}
	}

	return &project, nil
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}

	return string(b)
}
