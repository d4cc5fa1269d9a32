package store

import (
	"fmt"
	"math/rand"

	"github.com/adhvyk-ar/studio/internal/domain"
)

// initialProjects seeds the collection shown before any snapshot exists.
func initialProjects() []domain.Project {
	return []domain.Project{
		{
			ID:           "demo_1",
			Name:         "Retail Shoe Demo",
			Type:         domain.WorldTracking,
			Thumbnail:    "https://images.unsplash.com/photo-1542291026-7eec264c27ff?auto=format&fit=crop&w=400&q=80",
			Status:       domain.StatusPublished,
			Views:        1240,
			LastModified: "2 mins ago",
			SceneObjects: []domain.SceneObject{},
		},
	}
}

// initialAssets seeds the asset library shown before any snapshot exists.
func initialAssets() []domain.Asset {
	return []domain.Asset{
		{
			ID:   "a1",
			Name: "Demo Cube",
			Type: domain.AssetModel,
			URL:  "https://raw.githubusercontent.com/KhronosGroup/glTF-Sample-Models/master/2.0/Box/glTF-Binary/Box.glb",
			Size: "0.1MB",
		},
	}
}

func defaultThumbnail() string {
	return fmt.Sprintf("https://picsum.photos/400/300?random=%d", rand.Intn(100))
}
