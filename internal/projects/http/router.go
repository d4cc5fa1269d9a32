package http

import (
	"github.com/gin-gonic/gin"

	"github.com/adhvyk-ar/studio/internal/projects/repository"
)

// Register mounts the project routes on the given group.
func Register(g *gin.RouterGroup, repo repository.ProjectRepository) {
	h := NewHandler(repo)
	g.GET("/projects", h.list)
	g.GET("/projects/:id", h.get)
	g.POST("/projects", h.save)
}
