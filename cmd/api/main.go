package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"regportal/docs"
	"regportal/internal/auth"
	"regportal/internal/config"
	"regportal/internal/credential"
	"regportal/internal/database"
	"regportal/internal/database/migration"
	handlers "regportal/internal/http/handler"
	"regportal/internal/http/middleware"
	"regportal/internal/logging"
	"regportal/internal/metrics"
	"regportal/internal/otel"
	"regportal/internal/registration"
	"regportal/internal/repository"
	"regportal/internal/repository/memory"
	"regportal/internal/repository/postgres"
	"regportal/internal/seed"
	"regportal/internal/service"
	"regportal/internal/storage"
)

// stores groups the persistence collaborators chosen by STORE_DRIVER.
type stores struct {
	db          *sql.DB
	requests    repository.RegistrationRepository
	credentials repository.CredentialRepository
	docTypes    repository.RequiredDocumentRepository
	objects     storage.Storage
}

// @title Registration Portal API
// @version 1.0
// @description Employee registration review and identity credential issuance.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.Location(), logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "component", "main", "event", "fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	policy, err := registration.ParseReopenPolicy(cfg.Pipeline.ReopenPolicy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.NewPipeline(reg)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	engine := registration.NewEngine(st.requests,
		registration.WithLogger(logger),
		registration.WithObserver(pipelineMetrics),
	)
	renderer := credential.NewRenderer(cfg.Pipeline.OrgName, cfg.Pipeline.OrgShortName,
		credential.WithOversample(cfg.Pipeline.RenderOversample),
	)
	svcOpts := []service.Option{service.WithLogger(logger), service.WithMetrics(pipelineMetrics)}
	regSvc := service.NewRegistrationService(st.requests, st.docTypes, st.objects, engine, policy, svcOpts...)
	issSvc := service.NewIssuanceService(st.requests, st.credentials, st.objects, renderer, engine, service.IssuanceConfig{
		ValidityYears: cfg.Pipeline.CredentialValidityYears,
		Concurrency:   cfg.Pipeline.BatchConcurrency,
		MaxItems:      cfg.Pipeline.BatchMaxItems,
		URLTTL:        cfg.MinIO.URLTTL,
	}, svcOpts...)

	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	errs := handlers.NewErrors(logger)
	app := fiber.New(fiber.Config{
		ErrorHandler:          errs.ErrorHandler(),
		BodyLimit:             20 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// RequestID first so every later layer can read it.
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(httpMetrics.Handler())
	app.Use(middleware.Logger(logger))

	deps := handlers.Dependencies{
		Registrations: regSvc,
		Issuance:      issSvc,
		Verifier:      auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		Gatherer:      reg,
		Errors:        errs,
	}
	if st.db != nil {
		deps.DB = st.db
	}
	handlers.RegisterRoutes(app, deps)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"component", "main",
			"event", "listen",
			"port", cfg.Port,
			"store_driver", cfg.StoreDriver,
			"reopen_policy", string(policy),
		)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down", "component", "main", "event", "shutdown")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func openStores(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*stores, error) {
	if cfg.StoreDriver == "memory" {
		requests := memory.NewRegistrationStore()
		docTypes := memory.NewRequiredDocumentStore()
		if err := seed.Run(ctx, docTypes, requests, logger, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		return &stores{
			requests:    requests,
			credentials: memory.NewCredentialStore(),
			docTypes:    docTypes,
			objects:     storage.NewMemory(memoryBucket(cfg.MinIO.Bucket)),
		}, nil
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objects, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize object storage: %w", err)
	}

	return &stores{
		db:          db,
		requests:    postgres.NewRegistrationPostgres(db),
		credentials: postgres.NewCredentialPostgres(db),
		docTypes:    postgres.NewRequiredDocumentPostgres(db),
		objects:     objects,
	}, nil
}

func memoryBucket(name string) string {
	if name == "" {
		return "regportal"
	}
	return name
}
