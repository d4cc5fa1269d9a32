package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adhvyk-ar/studio/internal/domain"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login mints a mock session for any email. There is no credential check; the
// token is a placeholder the client never validates.
func login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	name := req.Email
	if i := strings.Index(req.Email, "@"); i > 0 {
		name = req.Email[:i]
	}

	c.JSON(http.StatusOK, domain.User{
		ID:    domain.NewID("usr"),
		Name:  name,
		Email: req.Email,
		Role:  domain.RoleAdmin,
		Plan:  "PRO",
		Token: fmt.Sprintf("mock-jwt-token-%d", time.Now().UnixMilli()),
	})
}

// Register mounts the auth routes on the given group.
func Register(g *gin.RouterGroup) {
	g.POST("/auth/login", login)
}
