// Command seedadmin migrates the schema and creates the admin account
// from configuration, for deployments that do not bootstrap on startup.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/folio-labs/folio/config"
	"github.com/folio-labs/folio/internal/repository"
	"github.com/folio-labs/folio/internal/service"
	"github.com/folio-labs/folio/pkg/database"
	"github.com/folio-labs/folio/pkg/logger"
)

func main() {
	var (
		username = flag.String("username", "", "admin username (defaults to config)")
		email    = flag.String("email", "", "admin email (defaults to config)")
		password = flag.String("password", "", "admin password (defaults to config)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *username == "" {
		*username = cfg.Auth.AdminUsername
	}
	if *email == "" {
		*email = cfg.Auth.AdminEmail
	}
	if *password == "" {
		*password = cfg.Auth.AdminPassword
	}
	if *password == "" {
		logger.Fatal("no admin password: pass -password or set FOLIO_AUTH_ADMIN_PASSWORD")
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	authSvc := service.NewAuthService(repository.NewUserRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err := authSvc.EnsureAdmin(ctx, *username, *email, *password); err != nil {
		logger.Fatal("admin bootstrap failed", zap.Error(err))
	}
	logger.Info("admin account ensured", zap.String("username", *username))
}
