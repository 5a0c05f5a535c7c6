package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/occumed/occumed/internal/config"
	"github.com/occumed/occumed/internal/domain/clinic"
	"github.com/occumed/occumed/internal/domain/company"
	"github.com/occumed/occumed/internal/domain/exam"
	"github.com/occumed/occumed/internal/domain/expedient"
	"github.com/occumed/occumed/internal/domain/patient"
	"github.com/occumed/occumed/internal/domain/study"
	"github.com/occumed/occumed/internal/domain/validation"
	"github.com/occumed/occumed/internal/platform/auth"
	"github.com/occumed/occumed/internal/platform/blobstore"
	"github.com/occumed/occumed/internal/platform/cache"
	"github.com/occumed/occumed/internal/platform/db"
	"github.com/occumed/occumed/internal/platform/messaging"
	"github.com/occumed/occumed/internal/platform/middleware"
	"github.com/occumed/occumed/internal/platform/policy"
	"github.com/occumed/occumed/internal/platform/render"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "occumed-server",
		Short: "Occupational health exam management server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			dir, _ := cmd.Flags().GetString("dir")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Creating tenant schema: tenant_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, dir); err != nil {
				return err
			}
			fmt.Println("Tenant created successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")
	createCmd.Flags().String("dir", "./migrations", "Path to migrations directory")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Cache
	redisCache, err := cache.New(&cache.Config{
		Host:      cfg.RedisHost,
		Port:      cfg.RedisPort,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: "occumed",
		Enabled:   cfg.RedisEnabled,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisCache.Close()

	// Blob store: MinIO when configured, in-memory for local development.
	var blobs blobstore.BlobStore
	if cfg.MinioEndpoint != "" {
		blobs, err = blobstore.NewMinioBlobStore(ctx, blobstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to object storage")
		}
		logger.Info().Str("bucket", cfg.MinioBucket).Msg("connected to object storage")
	} else {
		logger.Warn().Msg("MINIO_ENDPOINT not set, using in-memory blob store")
		blobs = blobstore.NewInMemoryBlobStore()
	}

	// Study policy catalog
	var catalog *policy.Catalog
	if _, statErr := os.Stat(cfg.PolicyFile); statErr == nil {
		catalog, err = policy.Load(cfg.PolicyFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.PolicyFile).Msg("failed to load policy catalog")
		}
		logger.Info().Str("file", cfg.PolicyFile).Msg("loaded study policy catalog")
	} else {
		logger.Warn().Str("file", cfg.PolicyFile).Msg("policy catalog not found, all uploaded studies will be required")
	}

	// Repositories
	clinicRepo := clinic.NewClinicRepoPG(pool)
	companyRepo := company.NewCompanyRepoPG(pool)
	patientRepo := patient.NewPatientRepoPG(pool)
	expedientRepo := expedient.NewExpedientRepoPG(pool)
	examRepo := exam.NewExamRepoPG(pool)
	studyRepo := study.NewStudyRepoPG(pool)
	taskRepo := validation.NewTaskRepoPG(pool)

	// Services
	companySvc := company.NewService(companyRepo)
	patientSvc := patient.NewService(patientRepo, redisCache)
	expedientSvc := expedient.NewService(expedientRepo)
	examSvc := exam.NewService(examRepo)
	studySvc := study.NewService(studyRepo, blobs)

	var policyResolver validation.PolicyResolver
	if catalog != nil {
		policyResolver = policy.NewResolver(catalog, expedientRepo, companyRepo, redisCache)
	}

	renderer := render.NewCertificateRenderer(blobs, redisCache)
	validationSvc := validation.NewService(validation.Deps{
		Tasks:      taskRepo,
		Expedients: expedientRepo,
		Exams:      examRepo,
		Studies:    studyRepo,
		Patients:   patientRepo,
		Companies:  companyRepo,
		Policy:     policyResolver,
		Renderer:   renderer,
		Pool:       pool,
		Cfg:        validation.Config{RequireOverrideReason: cfg.RequireOverrideReason},
	})

	// An expedient entering READY_FOR_REVIEW opens its review task.
	expedientSvc.OnReadyForReview(func(ctx context.Context, e *expedient.Expedient) error {
		_, err := validationSvc.OpenTask(ctx, e.ID)
		if err == validation.ErrTaskAlreadyOpen {
			return nil
		}
		return err
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// Tenant middleware
	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	// Handlers
	clinic.NewHandler(clinicRepo).RegisterRoutes(apiV1)
	company.NewHandler(companySvc).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	expedient.NewHandler(expedientSvc).RegisterRoutes(apiV1)
	exam.NewHandler(examSvc).RegisterRoutes(apiV1)
	study.NewHandler(studySvc).RegisterRoutes(apiV1)
	validation.NewHandler(validationSvc).RegisterRoutes(apiV1)

	// Extraction consumer
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if cfg.RabbitMQEnabled {
		conn, err := messaging.Connect(messaging.Config{
			Host:     cfg.RabbitMQHost,
			Port:     cfg.RabbitMQPort,
			Username: cfg.RabbitMQUsername,
			Password: cfg.RabbitMQPassword,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer conn.Close()

		consumer := messaging.NewExtractionConsumer(conn, studySvc, logger)
		go func() {
			if err := consumer.Run(consumerCtx); err != nil && consumerCtx.Err() == nil {
				logger.Error().Err(err).Msg("extraction consumer stopped")
			}
		}()
	}

	// Start server
	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopConsumer()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
