package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mapleerp/employee-portal/internal/cep"
	"github.com/mapleerp/employee-portal/internal/employee/client"
	"github.com/mapleerp/employee-portal/internal/employee/editor"
	"github.com/mapleerp/employee-portal/internal/employee/events"
	"github.com/mapleerp/employee-portal/internal/employee/handler"
	"github.com/mapleerp/employee-portal/internal/employee/repository"
	"github.com/mapleerp/employee-portal/internal/employee/service"
	"github.com/mapleerp/employee-portal/internal/employee/validation"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/database"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/i18n"
	"github.com/mapleerp/employee-portal/pkg/logger"
	"github.com/mapleerp/employee-portal/pkg/messaging"
)

const serviceName = "employee-portal"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment).SetDebug(cfg.Debug.EnableLogs)
	log.Info().Str("backend", cfg.BackendURL()).Msg("starting Employee Portal")

	if err := validation.Register(httputil.RegisterCustomValidation); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional activity log
	var (
		db       *database.DB
		activity *repository.ActivityRepository
	)
	if cfg.Database.Enabled() {
		db, err = database.New(cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		activity = repository.NewActivityRepository(db)
		if err := activity.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare activity schema")
		}
	}

	// Optional event publishing
	var (
		rmq       *messaging.RabbitMQ
		publisher *events.EmployeeEventPublisher
	)
	if cfg.RabbitMQ.Enabled() {
		rmq, err = messaging.New(cfg.RabbitMQ, serviceName, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewRabbitPublisher(rmq, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	opts := service.Options{}
	if activity != nil {
		opts.Activity = activity
		opts.Recorder = events.NewRecorder(publisher, activity, log)
	} else {
		opts.Recorder = events.NewRecorder(publisher, nil, log)
	}

	// Editor sessions are swept in the background
	sessions := editor.NewStore(cfg.Session, log)
	go sessions.Run(ctx)

	portal := service.NewPortalService(
		cfg,
		client.NewEmployeeClient(cfg, log),
		cep.New(cfg.ViaCEP, log),
		sessions,
		opts,
		log,
	)

	handlers := handler.Handlers{
		Employees:  handler.NewEmployeeHandler(portal, cfg.Pagination, log),
		Editor:     handler.NewEditorHandler(portal, cfg.Upload, log),
		Validation: handler.NewValidationHandler(validation.NewBrazilianValidator(), portal, log),
	}

	// Create router
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(i18n.Middleware)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"version":  cfg.App.Version,
			"features": portal.Features(),
		}
		if db != nil {
			status["database"] = db.Health(r.Context())
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	r.Route("/api/v1", handlers.Mount)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stops the session sweeper
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
