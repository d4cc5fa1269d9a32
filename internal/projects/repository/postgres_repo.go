package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adhvyk-ar/studio/internal/domain"
)

// PostgresRepository stores each project as a JSONB document. The table keeps
// its own created_at for newest-first listing, independent of the free-form
// lastModified marker inside the document.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the projects table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS ar_projects (
    id         TEXT PRIMARY KEY,
    doc        JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("migrate ar_projects: %w", err)
	}
	return nil
}

// List returns all projects, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT doc FROM ar_projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		var p domain.Project
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Get retrieves a project by its ID
func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM ar_projects WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	var p domain.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal project: %w", err)
	}
	return &p, nil
}

// Save upserts a project document by id.
func (r *PostgresRepository) Save(ctx context.Context, project domain.Project) (domain.Project, error) {
	raw, err := json.Marshal(project)
	if err != nil {
		return domain.Project{}, fmt.Errorf("marshal project: %w", err)
	}

	const q = `
INSERT INTO ar_projects (id, doc)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now();
`
	if _, err := r.pool.Exec(ctx, q, project.ID, raw); err != nil {
		return domain.Project{}, fmt.Errorf("save project: %w", err)
	}
	return project, nil
}

// Delete removes the project with the given id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ar_projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
