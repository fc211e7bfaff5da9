package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/config"
	"github.com/zenops/valuation-api/internal/database"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/http/handler"
	"github.com/zenops/valuation-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/zenops/valuation-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	db                *gorm.DB
	authMiddleware    *auth.Middleware
	authHandler       *handler.AuthHandler
	assignmentHandler *handler.AssignmentHandler
	fileHandler       *handler.FileHandler
	activityHandler   *handler.ActivityHandler
	masterDataHandler *handler.MasterDataHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	authHandler *handler.AuthHandler,
	assignmentHandler *handler.AssignmentHandler,
	fileHandler *handler.FileHandler,
	activityHandler *handler.ActivityHandler,
	masterDataHandler *handler.MasterDataHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		authMiddleware:    authMiddleware,
		authHandler:       authHandler,
		assignmentHandler: assignmentHandler,
		fileHandler:       fileHandler,
		activityHandler:   activityHandler,
		masterDataHandler: masterDataHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.RequestLogger(rt.logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(middleware.RateLimit(&rt.cfg.RateLimit, rt.logger))

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			r.Get("/auth/me", rt.authHandler.Me)

			// Assignments
			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", rt.assignmentHandler.List)
				r.Post("/", rt.assignmentHandler.Create)
				r.Get("/summary", rt.assignmentHandler.Summary)
				r.Get("/{id}", rt.assignmentHandler.Get)
				r.Get("/{id}/detail", rt.assignmentHandler.GetDetail)
				r.Patch("/{id}", rt.assignmentHandler.Update)
				r.Delete("/{id}", rt.assignmentHandler.Delete)
			})

			// File attachments
			r.Route("/files", func(r chi.Router) {
				r.Post("/upload/{assignment_id}", rt.fileHandler.Upload)
				r.Get("/{assignment_id}", rt.fileHandler.List)
				r.Get("/download/{file_id}", rt.fileHandler.Download)
			})

			// Activity trail
			r.Route("/activity", func(r chi.Router) {
				r.Get("/recent", rt.activityHandler.ListRecent)
				r.Get("/assignment/{assignment_id}", rt.activityHandler.ListByAssignment)
			})

			// Master data: reads for everyone, writes for ADMIN
			r.Route("/master", func(r chi.Router) {
				r.Get("/banks", rt.masterDataHandler.ListBanks)
				r.Get("/banks/{id}", rt.masterDataHandler.GetBank)
				r.Get("/branches", rt.masterDataHandler.ListBranches)
				r.Get("/clients", rt.masterDataHandler.ListClients)
				r.Get("/property-types", rt.masterDataHandler.ListPropertyTypes)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)

					r.Post("/banks", rt.masterDataHandler.CreateBank)
					r.Put("/banks/{id}", rt.masterDataHandler.UpdateBank)
					r.Delete("/banks/{id}", rt.masterDataHandler.DeleteBank)
					r.Post("/branches", rt.masterDataHandler.CreateBranch)
					r.Put("/branches/{id}", rt.masterDataHandler.UpdateBranch)
					r.Delete("/branches/{id}", rt.masterDataHandler.DeleteBranch)
					r.Post("/clients", rt.masterDataHandler.CreateClient)
					r.Delete("/clients/{id}", rt.masterDataHandler.DeleteClient)
					r.Post("/property-types", rt.masterDataHandler.CreatePropertyType)
					r.Delete("/property-types/{id}", rt.masterDataHandler.DeletePropertyType)
				})
			})
		})

		// Personnel administration. LegacyAdminAuth also accepts the
		// X-Admin-Email/X-Admin-Password header pair used by older tooling.
		r.Route("/auth/users", func(r chi.Router) {
			r.Use(rt.authMiddleware.LegacyAdminAuth)
			r.Use(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleHR))

			r.Post("/", rt.authHandler.CreateUser)
			r.Get("/", rt.authHandler.ListUsers)
			r.Patch("/{id}", rt.authHandler.UpdateUser)
			r.Post("/{id}/toggle-active", rt.authHandler.ToggleActive)
			r.Post("/{id}/reset-password", rt.authHandler.ResetPassword)
		})
	})

	return r
}
