package repository

import (
	"context"
	"sync"

	"github.com/adhvyk-ar/studio/internal/domain"
)

// MemoryRepository keeps projects in process memory. Default backend for
// development and handler tests; nothing survives a restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects []domain.Project
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// List returns the project collection, newest first.
func (r *MemoryRepository) List(ctx context.Context) ([]domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Project, len(r.projects))
	for i, p := range r.projects {
		out[i] = p.Clone()
	}
	return out, nil
}

// Get returns the project with the given id.
func (r *MemoryRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.projects {
		if r.projects[i].ID == id {
			clone := r.projects[i].Clone()
			return &clone, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

// Save upserts by id, prepending new projects.
func (r *MemoryRepository) Save(ctx context.Context, project domain.Project) (domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.projects {
		if r.projects[i].ID == project.ID {
			r.projects[i] = project.Clone()
			return project, nil
		}
	}
	r.projects = append([]domain.Project{project.Clone()}, r.projects...)
	return project, nil
}

// Delete removes the project with the given id.
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.projects {
		if r.projects[i].ID == id {
			r.projects = append(r.projects[:i], r.projects[i+1:]...)
			return nil
		}
	}
	return domain.ErrProjectNotFound
}
