package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhvyk-ar/studio/internal/domain"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func redisProject(id, name string) domain.Project {
	return domain.Project{
		ID:           id,
		Name:         name,
		Type:         domain.WorldTracking,
		Status:       domain.StatusDraft,
		LastModified: "2026-01-01T00:00:00Z",
		SceneObjects: []domain.SceneObject{},
	}
}

func TestRedisRepository_SaveAndGet(t *testing.T) {
	repo := NewRedisRepository(setupTestRedis(t))
	ctx := context.Background()

	p := redisProject("p1", "Demo")
	saved, err := repo.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p, saved)

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p, *got)
}

func TestRedisRepository_Get_NotFound(t *testing.T) {
	repo := NewRedisRepository(setupTestRedis(t))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestRedisRepository_List_NewestFirst(t *testing.T) {
	repo := NewRedisRepository(setupTestRedis(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, redisProject("p1", "First"))
	require.NoError(t, err)
	_, err = repo.Save(ctx, redisProject("p2", "Second"))
	require.NoError(t, err)

	// Updating an existing project must not change its position
	_, err = repo.Save(ctx, redisProject("p1", "First edited"))
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID)
	assert.Equal(t, "First edited", list[1].Name)
}

func TestRedisRepository_List_Empty(t *testing.T) {
	repo := NewRedisRepository(setupTestRedis(t))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisRepository_Delete(t *testing.T) {
	repo := NewRedisRepository(setupTestRedis(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, redisProject("p1", "Demo"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "p1"))

	_, err = repo.Get(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
