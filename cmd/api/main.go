package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinsim/internal/config"
	"clinsim/internal/database"
	"clinsim/internal/database/migration"
	handlers "clinsim/internal/http/handler"
	"clinsim/internal/http/middleware"
	"clinsim/internal/model"
	"clinsim/internal/otel"
	"clinsim/internal/repository/postgres"
	"clinsim/internal/service"
	"clinsim/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()
	loc := time.UTC

	// Initialize tracing; degrades to noop when the exporter is unreachable
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories and services
	fileRepo := postgres.NewPatientFilePostgres(db)
	requestRepo := postgres.NewInvestigationRequestPostgres(db)
	visibilityRepo := postgres.NewVisibilityPostgres(db)

	accessSvc := service.NewAccessService(fileRepo, requestRepo, visibilityRepo, model.DefaultVisibilityPolicy())
	svcs := handlers.Services{
		Files:      service.NewFileService(objStore, fileRepo, visibilityRepo, accessSvc),
		Requests:   service.NewRequestService(requestRepo, fileRepo),
		Visibility: service.NewVisibilityService(fileRepo, visibilityRepo),
		Access:     accessSvc,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	// Prometheus request counter + /metrics endpoint
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	presignExpiry := time.Duration(cfg.PresignExpirySec) * time.Second
	handlers.RegisterRoutes(app, db, svcs, presignExpiry)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
