package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/keelson/folio-api/internal/api"
	"github.com/keelson/folio-api/internal/config"
	"github.com/keelson/folio-api/internal/domain"
	"github.com/keelson/folio-api/internal/hooks"
	"github.com/keelson/folio-api/internal/platform/logger"
	"github.com/keelson/folio-api/internal/platform/postgres"
	"github.com/keelson/folio-api/internal/query"
	"github.com/keelson/folio-api/internal/schema"
	"github.com/keelson/folio-api/internal/serializer"
	"github.com/keelson/folio-api/internal/service/auth"
)

// application bundles the wired components and the running server.
type application struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	server *http.Server
}

// initializeApp loads configuration and wires every component: logger,
// database and migrations, schema registry, stores, services, and router.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	registry := schema.NewRegistry()
	if err := domain.RegisterSchemas(registry); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register schemas: %w", err)
	}

	pgStore := postgres.NewStore(db, registry, log)
	userStore := postgres.NewUserStore(db)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	validator := query.NewValidator(registry, query.Bounds{
		DefaultPageSize: cfg.API.DefaultPageSize,
		MaxPageSize:     cfg.API.MaxPageSize,
		MaxIncludeDepth: cfg.API.MaxIncludeDepth,
	})
	ser := serializer.New(registry, cfg.API.BaseURL)

	authHandler := api.NewAuthHandler(userStore, jwtService, auth.NewBcryptHasher())
	router := newRouter(routerDeps{
		registry:    registry,
		repos:       pgStore,
		validator:   validator,
		serializer:  ser,
		hooks:       hooks.NewRegistry(),
		authorizer:  auth.NewWriteGuard(),
		jwtService:  jwtService,
		authHandler: authHandler,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	return &application{cfg: cfg, logger: log, db: db, server: server}, nil
}

// Close releases the application's resources.
func (a *application) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
