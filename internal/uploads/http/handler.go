package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Handler stores multipart uploads under a public directory and returns the
// reference URL the client embeds into scene objects.
type Handler struct {
	dir string
}

// NewHandler creates an upload handler writing into dir, creating it if needed.
func NewHandler(dir string) (*Handler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Handler{dir: dir}, nil
}

// RateLimit rejects requests beyond the limiter's budget. Uploads are the only
// route worth throttling; everything else is metadata-sized.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many uploads"})
			return
		}
		c.Next()
	}
}

func (h *Handler) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString()[:8], filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	c.JSON(http.StatusOK, gin.H{
		"url":      fmt.Sprintf("%s://%s/uploads/%s", scheme, c.Request.Host, name),
		"filename": name,
		"mimetype": file.Header.Get("Content-Type"),
		"size":     file.Size,
	})
}

// Register mounts the upload route on the given group.
func Register(g *gin.RouterGroup, h *Handler, limiter *rate.Limiter) {
	g.POST("/upload", RateLimit(limiter), h.upload)
}
