package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tilequote/quote-api/docs"
	"github.com/tilequote/quote-api/internal/auth"
	"github.com/tilequote/quote-api/internal/config"
	"github.com/tilequote/quote-api/internal/database"
	"github.com/tilequote/quote-api/internal/extraction"
	"github.com/tilequote/quote-api/internal/http/handler"
	"github.com/tilequote/quote-api/internal/http/middleware"
	"github.com/tilequote/quote-api/internal/http/router"
	"github.com/tilequote/quote-api/internal/jobs"
	"github.com/tilequote/quote-api/internal/logger"
	"github.com/tilequote/quote-api/internal/notify"
	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/service"
	"github.com/tilequote/quote-api/internal/storage"
	"go.uber.org/zap"
)

// @title Tile Quote API
// @version 1.0
// @description Quotation, invoicing and bookkeeping API for tiling contractors

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token from /auth/login

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for automation
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	}

	// In staging/production with USE_AZURE_KEY_VAULT=true secrets come from Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// PostgreSQL is migrated with cmd/migrate; SQLite has no migration history
	if cfg.Database.Driver == database.DriverSQLite || cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("Database schema migrated from models")
	}

	photoStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Repositories
	settingsRepo := repository.NewSettingsRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)

	// Services
	settingsService := service.NewSettingsService(settingsRepo, log)
	if err := settingsService.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("failed to prepare settings: %w", err)
	}
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, cfg.Invoicing.Prefix, log)
	quotationService := service.NewQuotationService(quotationRepo, clientRepo, settingsService, log, db)
	invoiceService := service.NewInvoiceService(invoiceRepo, numberSequenceService, settingsService, cfg.Invoicing.PaymentTermDays, log, db)
	clientService := service.NewClientService(clientRepo, quotationRepo, invoiceRepo, settingsService, log)
	expenseService := service.NewExpenseService(expenseRepo, quotationRepo, log)
	dashboardService := service.NewDashboardService(quotationRepo, invoiceRepo, expenseRepo, settingsService, log)
	backupService := service.NewBackupService(numberSequenceService, settingsService, cfg.Invoicing.PaymentTermDays, log, db)

	// The extractor stays a nil interface when disabled so the service reports it as unavailable
	var extractor extraction.Extractor
	if cfg.Extraction.Enabled {
		extractor = extraction.NewClient(&cfg.Extraction, log)
		log.Info("AI extraction enabled",
			zap.String("model", cfg.Extraction.Model),
			zap.Duration("timeout", cfg.Extraction.Timeout()),
		)
	} else {
		log.Info("AI extraction not configured, skipping")
	}
	extractionService := service.NewExtractionService(extractor, photoStorage, quotationService, settingsService, log)

	notifier := notify.NewNotifier(&cfg.SMS, log)
	reminderService := service.NewReminderService(invoiceRepo, notifier, settingsService, cfg.SMS.ReminderIntervalDays, log)

	// Auth
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	authenticator := auth.NewAuthenticator(cfg.Auth.Username, cfg.Auth.PasswordHash, tokens)
	authMiddleware := auth.NewMiddleware(tokens, cfg.Auth.APIKey, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authenticator, log),
		Quotation: handler.NewQuotationHandler(quotationService, invoiceService, clientService, extractionService, photoStorage, cfg.Storage.MaxUploadSizeMB, log),
		Invoice:   handler.NewInvoiceHandler(invoiceService, log),
		Client:    handler.NewClientHandler(clientService, log),
		Expense:   handler.NewExpenseHandler(expenseService, log),
		Settings:  handler.NewSettingsHandler(settingsService, log),
		Dashboard: handler.NewDashboardHandler(dashboardService, log),
		Backup:    handler.NewBackupHandler(backupService, log),
	}

	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, handlers)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		// runOnStartup catches invoices that fell due while the server was down
		if err := jobs.RegisterOverdueJob(
			scheduler,
			invoiceService,
			reminderService,
			log,
			cfg.Jobs.OverdueSweepSchedule,
			0,
			true,
		); err != nil {
			log.Error("Failed to register overdue job", zap.Error(err))
		} else {
			scheduler.Start()
			next, _ := scheduler.NextRun(jobs.OverdueJobName)
			log.Info("Scheduler started",
				zap.Strings("jobs", scheduler.GetJobNames()),
				zap.String("cron_expr", cfg.Jobs.OverdueSweepSchedule),
				zap.Time("next_run", next),
				zap.Bool("sms_reminders", notifier.Enabled()),
			)
		}
	} else {
		log.Info("Background jobs disabled")
	}

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

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("Error closing database connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
