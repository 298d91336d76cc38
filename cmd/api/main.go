package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"docsign/internal/config"
	"docsign/internal/database"
	"docsign/internal/database/migration"
	"docsign/internal/extraction"
	handlers "docsign/internal/http/handler"
	"docsign/internal/http/middleware"
	"docsign/internal/inference"
	"docsign/internal/ocr/tesseract"
	"docsign/internal/otel"
	"docsign/internal/repository/postgres"
	"docsign/internal/service"
	"docsign/internal/signature"
	"docsign/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC
	ctx := context.Background()

	// Tracing is optional; a failed exporter degrades to a noop provider.
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

	// Repositories
	docRepo := postgres.NewDocumentPostgres(db)
	sigRepo := postgres.NewSignaturePostgres(db)
	settingsRepo := postgres.NewSettingsPostgres(db)

	// Metrics registry shared by the HTTP middleware and pipeline counters
	registry := prometheus.NewRegistry()
	promMW, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	extractionMetrics, err := extraction.NewMetrics(registry)
	if err != nil {
		log.Fatalf("failed to initialize extraction metrics: %v", err)
	}

	// Extraction cascade: native text, local OCR, remote vision fallback
	inferenceClient := inference.New(cfg.Inference)
	engine := extraction.NewEngine(
		extraction.NewPathResolver(cfg.Upload),
		&extraction.PdftoppmRasterizer{},
		tesseract.New(),
		inferenceClient,
		cfg.OCR,
		extraction.WithMetrics(extractionMetrics),
	)

	// Signature verification: certificate, OCSP, chain, timestamp, temporal
	verifier := signature.NewVerifier(
		cfg.Verification,
		signature.NewHTTPOCSPChecker(cfg.Verification.OCSPResponderURL, time.Duration(cfg.Verification.TimeoutSec)*time.Second),
		signature.RFC3161Validator{},
	)

	// Services
	docSvc := service.NewDocumentService(objStore, docRepo, settingsRepo, engine, inferenceClient, cfg.Upload.Dir)
	sigSvc := service.NewSignatureService(sigRepo, verifier)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMW.Handler())

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, docSvc, sigSvc, settingsRepo)

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
