package bootstrap

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	authhttp "github.com/adhvyk-ar/studio/internal/auth/http"
	projectshttp "github.com/adhvyk-ar/studio/internal/projects/http"
	"github.com/adhvyk-ar/studio/internal/projects/repository"
	uploadshttp "github.com/adhvyk-ar/studio/internal/uploads/http"
)

type RouterDeps struct {
	ServiceName   string
	Version       string
	Repo          repository.ProjectRepository
	UploadsDir    string
	UploadLimiter *rate.Limiter
}

func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "service": dep.ServiceName, "version": dep.Version})
	})

	uploadHandler, err := uploadshttp.NewHandler(dep.UploadsDir)
	if err != nil {
		return nil, err
	}

	limiter := dep.UploadLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(5), 10)
	}

	api := r.Group("/api")
	projectshttp.Register(api, dep.Repo)
	uploadshttp.Register(api, uploadHandler, limiter)
	authhttp.Register(api)

	r.Static("/uploads", dep.UploadsDir)

	return r, nil
}
