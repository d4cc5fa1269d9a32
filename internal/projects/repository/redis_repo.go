package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/adhvyk-ar/studio/internal/domain"
)

const (
	projectKeyPrefix = "ar:project:"       // Key for project data: ar:project:{id}
	projectOrderKey  = "ar:projects:order" // List of project IDs, newest first
)

// RedisRepository stores project documents in Redis, one JSON blob per id,
// with a list keeping insertion order so List matches the client's
// newest-first collection.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new RedisRepository
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// List returns all projects in order.
func (r *RedisRepository) List(ctx context.Context) ([]domain.Project, error) {
	ids, err := r.client.LRange(ctx, projectOrderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read project order: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.projectKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}

	projects := make([]domain.Project, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Order entry without a document; skip it
			continue
		}
		var p domain.Project
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// Get retrieves a project by its ID
func (r *RedisRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	raw, err := r.client.Get(ctx, r.projectKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var p domain.Project
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &p, nil
}

// Save upserts a project. New ids are pushed to the front of the order list.
func (r *RedisRepository) Save(ctx context.Context, project domain.Project) (domain.Project, error) {
	raw, err := json.Marshal(project)
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to marshal project: %w", err)
	}

	exists, err := r.client.Exists(ctx, r.projectKey(project.ID)).Result()
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to check project: %w", err)
	}

	// Use pipeline for atomic operations
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.projectKey(project.ID), raw, 0)
	if exists == 0 {
		pipe.LPush(ctx, projectOrderKey, project.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Project{}, fmt.Errorf("failed to save project: %w", err)
	}
	return project, nil
}

// Delete removes a project and its order entry.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.projectKey(id))
	pipe.LRem(ctx, projectOrderKey, 0, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (r *RedisRepository) projectKey(id string) string {
	return projectKeyPrefix + id
}
