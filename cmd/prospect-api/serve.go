package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prospect-api/internal/auth"
	"prospect-api/internal/config"
	"prospect-api/internal/database"
	"prospect-api/internal/http/handler"
	"prospect-api/internal/observability/logger"
	"prospect-api/internal/ratelimit"
	"prospect-api/internal/repo"
	"prospect-api/internal/service"
	"prospect-api/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the Prospect API HTTP server with all middlewares and observability`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.OTELServiceName, "info")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	log.Info(context.Background(), "starting prospect api",
		zap.String("version", "1.0.0"),
		zap.String("service", cfg.OTELServiceName),
	)

	// Run database migrations
	log.Info(ctx, "running database migrations")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info(ctx, "migrations completed successfully")

	// Initialize telemetry strictly as opt-in
	var tracerProvider *sdktrace.TracerProvider
	var meterProvider *sdkmetric.MeterProvider
	var metrics *telemetry.Metrics

	if cfg.TelemetryEnabled() {
		log.Info(ctx, "initializing telemetry", zap.String("endpoint", cfg.OTELExporterEndpoint))

		// Initialize tracer
		tp, err := telemetry.InitTracer(ctx, cfg.OTELServiceName, cfg.OTELExporterEndpoint, cfg.OTELSamplingRatio)
		if err != nil {
			log.Warn(ctx, "failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			tracerProvider = tp
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown tracer provider", zap.Error(err))
				}
			}()
		}

		// Initialize metrics
		mp, m, err := telemetry.InitMetrics(ctx, cfg.OTELServiceName, cfg.OTELExporterEndpoint)
		if err != nil {
			log.Warn(ctx, "failed to initialize metrics, continuing without metrics", zap.Error(err))
		} else {
			meterProvider = mp
			metrics = m
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := meterProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown meter provider", zap.Error(err))
				}
			}()
		}

		log.Info(ctx, "telemetry initialized", zap.Bool("tracing", tracerProvider != nil), zap.Bool("metrics", metrics != nil))
	} else {
		log.Info(ctx, "telemetry disabled (opt-in only or missing endpoint)")
	}

	// Connect to database
	log.Info(ctx, "connecting to database")
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Info(ctx, "database connected")

	// Connect to Redis
	log.Info(ctx, "connecting to redis")
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Ping Redis to ensure connectivity
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info(ctx, "redis connected")

	// Initialize JWT validation (JWT_HS256_SECRET must be Base64-encoded)
	log.Info(ctx, "initializing JWT authentication")
	clockSkew := time.Duration(cfg.JWTClockSkewSeconds) * time.Second
	tokenValidator, err := auth.NewHS256Validator(cfg.JWTHS256Secret, cfg.JWTIssuer, cfg.JWTAudience, clockSkew)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT validator: %w", err)
	}
	log.Info(ctx, "JWT authentication initialized",
		zap.String("issuer", cfg.JWTIssuer),
		zap.String("audience", cfg.JWTAudience),
		zap.Int("clock_skew_seconds", cfg.JWTClockSkewSeconds),
	)

	// Initialize repositories
	idempotencyRepo := repo.NewIdempotencyRepo(pool)
	auditRepo := repo.NewAuditRepo(pool)
	opportunityRepo := repo.NewOpportunityRepository(pool)
	leadRepo := repo.NewLeadRepository(pool)
	customerRepo := repo.NewCustomerRepository(pool)
	itemRepo := repo.NewItemRepository(pool)
	quotationRepo := repo.NewQuotationRepository(pool)
	eventRepo := repo.NewEventRepository(pool)

	// Optional domain counters
	var createdCounter, lostCounter, convertedCounter, leadsCounter, rateLimitCounter metric.Int64Counter
	if metrics != nil {
		createdCounter = metrics.OpportunitiesCreated
		lostCounter = metrics.OpportunitiesLost
		convertedCounter = metrics.QuotationsConverted
		leadsCounter = metrics.LeadsAutoCreated
		rateLimitCounter = metrics.RateLimitRejections
	}

	// Initialize services
	leadService := service.NewLeadService(leadRepo, opportunityRepo, log, leadsCounter)

	var fiscalPolicy service.FiscalYearValidator = service.CalendarYearPolicy{}
	if !cfg.FiscalYearValidation {
		fiscalPolicy = service.DisabledFiscalYearPolicy{}
	}

	opportunityService := service.NewOpportunityService(service.OpportunityServiceDeps{
		Opportunities: opportunityRepo,
		Leads:         leadRepo,
		Customers:     customerRepo,
		Items:         itemRepo,
		Quotations:    quotationRepo,
		Events:        eventRepo,
		LeadService:   leadService,
		Audit:         auditRepo,
		Log:           log,

		FiscalYear:      fiscalPolicy,
		UOM:             service.NewWholeNumberUOMs(cfg.GetIntegerUOMs()),
		DefaultCurrency: cfg.DefaultCurrency,

		CreatedCounter:   createdCounter,
		LostCounter:      lostCounter,
		ConvertedCounter: convertedCounter,
	})

	// Initialize handlers
	opportunityHandler := handler.NewOpportunityHandler(opportunityService)
	itemHandler := handler.NewItemHandler(opportunityService)
	customerHandler := handler.NewCustomerHandler(opportunityService)
	debugHandler := handler.NewDebugHandler(pool)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewRedisRateLimiter(redisClient, rateLimitCounter)

	// Build router
	r := buildRouter(RouterDeps{
		Cfg:             cfg,
		Log:             log,
		TokenValidator:  tokenValidator,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Metrics:         metrics,
		Pool:            pool,

		OpportunityHandler: opportunityHandler,
		ItemHandler:        itemHandler,
		CustomerHandler:    customerHandler,
		DebugHandler:       debugHandler,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info(ctx, "starting http server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info(ctx, "shutdown signal received, starting graceful shutdown")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown error", zap.Error(err))
	}

	log.Info(shutdownCtx, "shutdown complete")
	return nil
}
