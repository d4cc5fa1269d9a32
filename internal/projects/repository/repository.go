package repository

import (
	"context"

	"github.com/adhvyk-ar/studio/internal/domain"
)

// ProjectRepository is the server-side store of record for projects. Save is
// an upsert keyed by project id; new projects are prepended so the collection
// stays newest-first, matching the client's ordering.
type ProjectRepository interface {
	List(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	Save(ctx context.Context, project domain.Project) (domain.Project, error)
	Delete(ctx context.Context, id string) error
}
