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

	"github.com/pharmalink/pharmalink-backend/internal/analytics/cache"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/consumers"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/events"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/handler"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/repository"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/service"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
	"github.com/pharmalink/pharmalink-backend/pkg/database"
	"github.com/pharmalink/pharmalink-backend/pkg/httputil"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("analytics-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("analytics-service", cfg.Server.Environment)
	log.Info().Msg("starting Analytics Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewAnalyticsEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	salesRepo := repository.NewSalesRepository(db)
	productRepo := repository.NewProductRepository(db)
	lotRepo := repository.NewLotRepository(db)

	// Initialize classification cache
	var matrixCache *cache.MatrixCache
	if cfg.Redis.Enabled {
		matrixCache = cache.NewMatrixCache(&cfg.Redis, cfg.Analytics.CacheTTL, log)
		defer matrixCache.Close()
	}

	// Initialize service
	var snapshotCache service.SnapshotCache
	if matrixCache != nil {
		snapshotCache = matrixCache
	}
	analyticsService := service.NewAnalyticsService(
		salesRepo, productRepo, lotRepo,
		snapshotCache, publisher,
		&cfg.Analytics, log,
	)

	// Initialize handlers
	matrixHandler := handler.NewMatrixHandler(analyticsService, log)
	exportHandler := handler.NewExportHandler(analyticsService, log)
	deliveriesHandler := handler.NewDeliveriesHandler(analyticsService, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start sale event consumer to invalidate stale classifications
	if matrixCache != nil {
		saleConsumer, err := consumers.NewSaleEventConsumer(rmq, matrixCache, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create sale event consumer")
		}
		if err := saleConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start sale event consumer")
		}
	}

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Pharmacy-ID", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.PharmacyMiddleware) // Extract pharmacy scope from headers

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "analytics-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		}
		if matrixCache != nil {
			health["cache"] = matrixCache.Health(r.Context())
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Get("/matrix", matrixHandler.Matrix)
		r.Get("/matrix/export", exportHandler.ExportMatrixXLSX)
		r.Route("/matrix/cells/{cell}", func(r chi.Router) {
			r.Get("/", matrixHandler.Cell)
			r.Get("/export", exportHandler.ExportCellCSV)
		})
		r.Get("/deliveries", deliveriesHandler.List)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
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

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
