package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/workforce-service/internal/api/http"
	"github.com/spec-kit/workforce-service/internal/api/http/handlers"
	"github.com/spec-kit/workforce-service/internal/auth"
	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/events"
	"github.com/spec-kit/workforce-service/internal/observability"
	"github.com/spec-kit/workforce-service/internal/persistence"
	"github.com/spec-kit/workforce-service/internal/repository"
	"github.com/spec-kit/workforce-service/internal/service"
	"github.com/spec-kit/workforce-service/internal/worker"
	"github.com/spec-kit/workforce-service/pkg/validation"
)

const statusLockWait = 2 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	logger = logger.Named("api")
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if cfg.Postgres.RunMigrations && pool != nil {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to configure redis", zap.Error(err))
	}
	defer redis.Close()

	var locker service.Locker = persistence.NewRedisLocker(redis.Client, "workforce:lock:", statusLockWait)
	var jobQueue handlers.JobEnqueuer
	if err := redis.Ping(ctx); err != nil {
		logger.Warn("redis unavailable; status locks are process-local and jobs run inline", zap.Error(err))
		locker = persistence.NewLocalLocker()
	} else {
		client, err := worker.NewClient(*cfg)
		if err != nil {
			logger.Fatal("failed to create job client", zap.Error(err))
		}
		defer client.Close() //nolint:errcheck
		jobQueue = client
	}
	deduper := persistence.NewAlertDeduper(redis.Client, "workforce:license-alert:", cfg.Workforce.LicenseAlertDedupTTL)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	staffRepo := repository.NewStaffRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	territoryRepo := repository.NewTerritoryRepository(pool)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{StaffRepo: staffRepo, Logger: logger})
	validator := validation.New()
	staffService := service.NewStaffService(*cfg, service.StaffDependencies{
		StaffRepo:     staffRepo,
		TerritoryRepo: territoryRepo,
		Validator:     validator,
		Logger:        logger,
	})
	statusService := service.NewStatusService(cfg.Workforce, service.StatusDependencies{
		StaffRepo:  staffRepo,
		Locker:     locker,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	territoryService := service.NewTerritoryService(cfg.Workforce, service.TerritoryDependencies{
		StaffRepo:     staffRepo,
		TerritoryRepo: territoryRepo,
		Logger:        logger,
	})
	teamService := service.NewTeamService(cfg.Workforce, service.TeamDependencies{
		StaffRepo:     staffRepo,
		TeamRepo:      teamRepo,
		TerritoryRepo: territoryRepo,
		Logger:        logger,
	})
	assignmentService := service.NewAssignmentService(cfg.Workforce, service.AssignmentDependencies{
		StaffRepo: staffRepo,
		TeamRepo:  teamRepo,
		Logger:    logger,
	})
	licenseService := service.NewLicenseService(cfg.Workforce, service.LicenseDependencies{
		StaffRepo:  staffRepo,
		Deduper:    deduper,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	workloadService := service.NewWorkloadService(cfg.Workforce, service.WorkloadDependencies{
		StaffRepo: staffRepo,
		Logger:    logger,
		Metrics:   metrics,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartLifecycleWorker(dispatcher, workloadService, notificationService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:          time.Duration(cfg.App.RequestTimeoutSeconds) * time.Second,
		CORSAllowOrigins: cfg.App.CORSAllowOrigins,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService, staffService, validator),
		Staff:          handlers.NewStaffHandler(staffService, statusService, validator),
		Territories:    handlers.NewTerritoryHandler(territoryService, validator),
		Teams:          handlers.NewTeamHandler(teamService, validator),
		Assignments:    handlers.NewAssignmentHandler(assignmentService, validator),
		Events:         handlers.NewEventsHandler(dispatcher, validator),
		Jobs:           handlers.NewJobsHandler(jobQueue, licenseService, territoryService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), staffRepo),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
