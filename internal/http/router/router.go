package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/tilequote/quote-api/internal/auth"
	"github.com/tilequote/quote-api/internal/config"
	"github.com/tilequote/quote-api/internal/database"
	"github.com/tilequote/quote-api/internal/http/handler"
	"github.com/tilequote/quote-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/tilequote/quote-api/docs" // registers the swagger document
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Auth      *handler.AuthHandler
	Quotation *handler.QuotationHandler
	Invoice   *handler.InvoiceHandler
	Client    *handler.ClientHandler
	Expense   *handler.ExpenseHandler
	Settings  *handler.SettingsHandler
	Dashboard *handler.DashboardHandler
	Backup    *handler.BackupHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database readiness with pool stats
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		stats, err := database.HealthCheckWithStats(ctx, rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		writeHealth(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	// Combined readiness
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := make(map[string]interface{})
		status := http.StatusOK

		if err := database.HealthCheck(ctx, rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = map[string]interface{}{"status": "healthy"}
		}
		checks["extraction"] = map[string]interface{}{"enabled": rt.cfg.Extraction.Enabled}
		checks["sms"] = map[string]interface{}{"enabled": rt.cfg.SMS.Enabled}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}
		writeHealth(w, status, map[string]interface{}{
			"status": overall,
			"checks": checks,
		})
	})

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/login", h.Auth.Login)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(middleware.CaptureUser)
			r.Use(rt.rateLimiter.Limit)

			r.Get("/auth/me", h.Auth.Me)

			r.Get("/settings", h.Settings.Get)
			r.Put("/settings", h.Settings.Update)

			r.Route("/quotations", func(r chi.Router) {
				r.Get("/", h.Quotation.List)
				r.Post("/", h.Quotation.Create)

				r.With(rt.rateLimiter.LimitExtraction).Post("/extract", h.Quotation.Extract)
				r.With(rt.rateLimiter.LimitExtraction).Post("/extract/image", h.Quotation.ExtractImage)

				r.Get("/{id}", h.Quotation.GetByID)
				r.Put("/{id}", h.Quotation.Update)
				r.Delete("/{id}", h.Quotation.Delete)
				r.Get("/{id}/totals", h.Quotation.GetTotals)
				r.Get("/{id}/export", h.Quotation.Export)
				r.Get("/{id}/photo", h.Quotation.Photo)

				// Lifecycle
				r.Post("/{id}/status", h.Quotation.UpdateStatus)
				r.Post("/{id}/duplicate", h.Quotation.Duplicate)
				r.Patch("/{id}/checklist/{index}", h.Quotation.ToggleChecklistItem)
				r.Post("/{id}/invoice", h.Quotation.ConvertToInvoice)
				r.Post("/{id}/client", h.Quotation.SaveClient)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", h.Invoice.List)
				r.Get("/{id}", h.Invoice.GetByID)
				r.Put("/{id}", h.Invoice.Update)
				r.Delete("/{id}", h.Invoice.Delete)
				r.Post("/{id}/pay", h.Invoice.MarkPaid)
				r.Get("/{id}/totals", h.Invoice.GetTotals)
				r.Get("/{id}/export", h.Invoice.Export)
			})

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.Client.List)
				r.Post("/", h.Client.Create)
				r.Get("/{id}", h.Client.GetByID)
				r.Put("/{id}", h.Client.Update)
				r.Delete("/{id}", h.Client.Delete)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", h.Expense.List)
				r.Post("/", h.Expense.Create)
				r.Get("/{id}", h.Expense.GetByID)
				r.Put("/{id}", h.Expense.Update)
				r.Delete("/{id}", h.Expense.Delete)
			})

			r.Get("/dashboard", h.Dashboard.GetMetrics)

			r.Get("/backup", h.Backup.Export)
			r.Post("/backup", h.Backup.Import)
		})
	})

	return r
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
