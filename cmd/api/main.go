package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zenops/valuation-api/docs"
	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/config"
	"github.com/zenops/valuation-api/internal/database"
	"github.com/zenops/valuation-api/internal/http/handler"
	"github.com/zenops/valuation-api/internal/http/router"
	"github.com/zenops/valuation-api/internal/logger"
	"github.com/zenops/valuation-api/internal/repository"
	"github.com/zenops/valuation-api/internal/service"
	"github.com/zenops/valuation-api/internal/storage"
	"go.uber.org/zap"
)

// @title Zen Ops Valuation API
// @version 1.0
// @description Internal operations tracker for property valuation assignments

// @contact.name API Support
// @contact.email support@zenops.in

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.App.Port)

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema migrations run via cmd/migrate in deployed environments;
	// AutoMigrate keeps local development frictionless.
	if cfg.App.Environment == "development" || cfg.App.Environment == "local" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to run automatic migrations: %w", err)
		}
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize repositories
	assignmentRepo := repository.NewAssignmentRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	userRepo := repository.NewUserRepository(db)
	rolePermissionRepo := repository.NewRolePermissionRepository(db)
	bankRepo := repository.NewBankRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	clientRepo := repository.NewClientRepository(db)
	propertyTypeRepo := repository.NewPropertyTypeRepository(db)

	// Initialize services
	tokenIssuer := auth.NewTokenIssuer(&cfg.Auth)
	activityService := service.NewActivityService(activityRepo, log)
	codeService := service.NewCodeGeneratorService(assignmentRepo, log)
	permissionService := service.NewPermissionService(rolePermissionRepo, log)
	userService := service.NewUserService(userRepo, permissionService, tokenIssuer, log)
	assignmentService := service.NewAssignmentService(
		assignmentRepo, fileRepo,
		bankRepo, branchRepo, clientRepo, propertyTypeRepo,
		codeService, activityService, fileStorage, log,
	)
	fileService := service.NewFileService(
		fileRepo, assignmentRepo, activityService, fileStorage,
		cfg.Storage.MaxUploadSizeMB, log,
	)
	masterDataService := service.NewMasterDataService(
		bankRepo, branchRepo, clientRepo, propertyTypeRepo, log,
	)

	// Seed the role permission catalog and the bootstrap admin account
	if err := permissionService.SeedCatalog(ctx); err != nil {
		return fmt.Errorf("failed to seed role permissions: %w", err)
	}
	if err := userService.SeedAdmin(ctx, &cfg.Admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	// Initialize middleware and handlers
	authMiddleware := auth.NewMiddleware(tokenIssuer, userRepo, log)
	authHandler := handler.NewAuthHandler(userService, log)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, log)
	fileHandler := handler.NewFileHandler(fileService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)
	masterDataHandler := handler.NewMasterDataHandler(masterDataService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		authHandler,
		assignmentHandler,
		fileHandler,
		activityHandler,
		masterDataHandler,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
