// Package api wires the HTTP surface: middleware stack and routes.
package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/folio-labs/folio/config"
	_ "github.com/folio-labs/folio/docs"
	"github.com/folio-labs/folio/internal/api/handler"
	"github.com/folio-labs/folio/internal/api/middleware"
	"github.com/folio-labs/folio/internal/service"
)

// NewRouter assembles the gin engine. rdb may be nil; the rate limiters
// then run on local token buckets.
func NewRouter(cfg *config.Config, h *handler.Handler, auth service.AuthService, rdb *redis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLog())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("folio-api"))
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
	}
	r.Use(cors.New(corsCfg))

	general := middleware.NewRateLimiter(rdb, "rl:general",
		cfg.RateLimit.GeneralLimit, cfg.RateLimit.Window,
		"Too many requests, please try again later.")
	authLimiter := middleware.NewRateLimiter(rdb, "rl:auth",
		cfg.RateLimit.AuthLimit, cfg.RateLimit.Window,
		"Too many authentication attempts, please try again later.")
	r.Use(general.Handler())

	r.GET("/", h.Root)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiGroup := r.Group("/api")
	apiGroup.GET("/health", h.Health)

	authGroup := apiGroup.Group("/auth", authLimiter.Handler())
	authGroup.POST("/login", h.Login)
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/verify", h.VerifySession)
	authGroup.POST("/logout", h.Logout)

	posts := apiGroup.Group("/posts")
	posts.GET("", h.ListPosts)
	posts.GET("/stats/summary", h.PostStats)
	posts.GET("/slug/:slug", h.GetPostBySlug)
	posts.GET("/:id", h.GetPost)

	admin := posts.Group("", middleware.RequireAuth(auth, cfg.Auth.CookieName))
	admin.POST("", h.CreatePost)
	admin.PUT("/:id", h.UpdatePost)
	admin.DELETE("/:id", h.DeletePost)

	return r
}
