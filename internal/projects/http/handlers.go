package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adhvyk-ar/studio/internal/domain"
	"github.com/adhvyk-ar/studio/internal/projects/repository"
)

// Handler serves the project routes of the remote store of record. Response
// shapes are the plain documents the sync client consumes.
type Handler struct {
	repo repository.ProjectRepository
}

// NewHandler creates a project handler backed by the given repository.
func NewHandler(repo repository.ProjectRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) list(c *gin.Context) {
	projects, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	p, err := h.repo.Get(c.Request.Context(), id)
	if errors.Is(err, domain.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) save(c *gin.Context) {
	var project domain.Project
	if err := c.ShouldBindJSON(&project); err != nil || strings.TrimSpace(project.ID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	// The server is authoritative for the last-modified marker on upsert.
	project.LastModified = time.Now().UTC().Format(time.RFC3339)

	saved, err := h.repo.Save(c.Request.Context(), project)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, saved)
}
