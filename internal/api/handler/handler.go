// Package handler contains the gin handlers for the posts and auth APIs.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/folio-labs/folio/config"
	"github.com/folio-labs/folio/internal/service"
)

// Handler bundles the services the API exposes. It is constructed once at
// startup and shared by every request.
type Handler struct {
	posts service.PostService
	auth  service.AuthService

	cookieName   string
	cookieMaxAge int
	cookieSecure bool
}

func NewHandler(posts service.PostService, auth service.AuthService, cfg *config.Config) *Handler {
	return &Handler{
		posts:        posts,
		auth:         auth,
		cookieName:   cfg.Auth.CookieName,
		cookieMaxAge: int(cfg.Auth.TokenTTL.Seconds()),
		cookieSecure: cfg.IsProduction(),
	}
}

// Root godoc
// @Summary Service banner
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Posts API Server is running!",
		"endpoints": gin.H{
			"posts":  "/api/posts",
			"health": "/api/health",
		},
	})
}

// Health godoc
// @Summary Health check
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Server is running"})
}
