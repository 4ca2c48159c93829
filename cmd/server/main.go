// Command server runs the portfolio/blog API.
//
// @title Folio API
// @version 1.0
// @description Blog post CRUD and admin authentication for the portfolio site.
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/folio-labs/folio/config"
	"github.com/folio-labs/folio/internal/api"
	"github.com/folio-labs/folio/internal/api/handler"
	"github.com/folio-labs/folio/internal/repository"
	"github.com/folio-labs/folio/internal/service"
	"github.com/folio-labs/folio/pkg/database"
	"github.com/folio-labs/folio/pkg/logger"
	"github.com/folio-labs/folio/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg)
	if err != nil {
		logger.Fatal("telemetry init failed", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, rate limiting falls back to local buckets", zap.Error(err))
		}
		cancel()
	}

	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	postSvc := service.NewPostService(postRepo)
	authSvc := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if err := authSvc.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("admin bootstrap failed", zap.Error(err))
	}

	h := handler.NewHandler(postSvc, authSvc, cfg)
	router := api.NewRouter(cfg, h, authSvc, rdb)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
