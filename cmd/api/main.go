package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "offrecord/docs" // This is for Swagger
	"offrecord/internal/auth"
	"offrecord/internal/config"
	"offrecord/internal/database"
	"offrecord/internal/email"
	"offrecord/internal/handlers"
	"offrecord/internal/logger"
	"offrecord/internal/middleware"
	"offrecord/internal/repository"
	"offrecord/internal/scheduler"
	"offrecord/internal/sealbox"
	"offrecord/internal/service"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title OffRecord API
// @version 1.0
// @description Backend API for OffRecord anonymous peer feedback groups

// @contact.name API Support
// @contact.email support@offrecord.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	groupRepo := repository.NewGroupRepository(db.DB)
	invitationRepo := repository.NewInvitationRepository(db.DB)
	feedbackRepo := repository.NewFeedbackRepository(db.DB)

	// Initialize sealed storage (if Vault is enabled)
	var sealer sealbox.Sealer = sealbox.Disabled{}
	if cfg.Vault.Enabled {
		transit, err := sealbox.NewTransitClient(&sealbox.TransitConfig{
			Address:      cfg.Vault.Address,
			Token:        cfg.Vault.Token,
			TransitMount: cfg.Vault.TransitMount,
		})
		if err != nil {
			slog.Error("Failed to initialize Vault client", "error", err)
			os.Exit(1)
		}
		sealer = sealbox.NewBox(db.DB, transit)
		slog.Info("Sealed feedback storage enabled", "vault_addr", cfg.Vault.Address)
	} else {
		slog.Warn("Vault is disabled - feedback text is stored unencrypted")
	}

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	emailService := email.NewService(&cfg.Email)
	authSvc := service.NewAuthService(userRepo, authService)
	groupSvc := service.NewGroupService(groupRepo, userRepo, cfg.Groups)
	invitationSvc := service.NewInvitationService(invitationRepo, groupRepo, userRepo, emailService)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, groupRepo, sealer, emailService)
	reportSvc := service.NewReportService(feedbackSvc, groupRepo, userRepo)

	// Initialize scheduler
	reminderScheduler := scheduler.NewScheduler(feedbackRepo, emailService, &cfg.Reminder)
	reminderScheduler.Start()
	defer reminderScheduler.Stop()

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	timeoutMw := middleware.Timeout(cfg.Server.RequestTimeout)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	groupHandler := handlers.NewGroupHandler(groupSvc)
	invitationHandler := handlers.NewInvitationHandler(invitationSvc)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackSvc, reportSvc)

	mux := http.NewServeMux()

	// Public auth routes
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// User routes
	mux.Handle("GET /api/v1/users/profile", authMw.Authenticate(http.HandlerFunc(authHandler.Profile)))

	// Group routes
	mux.Handle("POST /api/v1/groups", authMw.Authenticate(http.HandlerFunc(groupHandler.Create)))
	mux.Handle("GET /api/v1/groups", authMw.Authenticate(http.HandlerFunc(groupHandler.List)))
	mux.Handle("GET /api/v1/groups/{id}", authMw.Authenticate(http.HandlerFunc(groupHandler.Get)))
	mux.Handle("DELETE /api/v1/groups/{id}", authMw.Authenticate(http.HandlerFunc(groupHandler.Delete)))
	mux.Handle("DELETE /api/v1/groups/{id}/members/{memberId}", authMw.Authenticate(http.HandlerFunc(groupHandler.RemoveMember)))

	// Invitation routes
	mux.Handle("POST /api/v1/groups/{id}/invitations/send", authMw.Authenticate(http.HandlerFunc(invitationHandler.Send)))
	mux.Handle("POST /api/v1/invitations/redeem", authMw.Authenticate(http.HandlerFunc(invitationHandler.Redeem)))

	// Feedback routes
	mux.Handle("POST /api/v1/groups/{id}/feedback", authMw.Authenticate(http.HandlerFunc(feedbackHandler.Submit)))
	mux.Handle("GET /api/v1/groups/{id}/feedback", authMw.Authenticate(http.HandlerFunc(feedbackHandler.Feedback)))
	mux.Handle("GET /api/v1/groups/{id}/completion", authMw.Authenticate(http.HandlerFunc(feedbackHandler.Completion)))
	mux.Handle("GET /api/v1/groups/{id}/report", authMw.Authenticate(http.HandlerFunc(feedbackHandler.Report)))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`)); err != nil {
				slog.Error("Failed to write health check response", "error", err)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`)); err != nil {
			slog.Error("Failed to write health check response", "error", err)
		}
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(
					timeoutMw(mux),
				),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
