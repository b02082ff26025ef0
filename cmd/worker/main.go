package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/events"
	"github.com/spec-kit/workforce-service/internal/observability"
	"github.com/spec-kit/workforce-service/internal/persistence"
	"github.com/spec-kit/workforce-service/internal/repository"
	"github.com/spec-kit/workforce-service/internal/service"
	"github.com/spec-kit/workforce-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	logger = logger.Named("worker")
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("worker requires POSTGRES_DSN")
	}

	redis, err := persistence.NewRedis(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to configure redis", zap.Error(err))
	}
	defer redis.Close()

	pool := pg.PoolHandle()
	staffRepo := repository.NewStaffRepository(pool)
	territoryRepo := repository.NewTerritoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	licenses := service.NewLicenseService(cfg.Workforce, service.LicenseDependencies{
		StaffRepo:  staffRepo,
		Deduper:    persistence.NewAlertDeduper(redis.Client, "workforce:license-alert:", cfg.Workforce.LicenseAlertDedupTTL),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	territories := service.NewTerritoryService(cfg.Workforce, service.TerritoryDependencies{
		StaffRepo:     staffRepo,
		TerritoryRepo: territoryRepo,
		Logger:        logger,
	})

	w, err := worker.NewWorker(*cfg, licenses, territories, logger)
	if err != nil {
		logger.Fatal("failed to create task worker", zap.Error(err))
	}
	scheduler, err := worker.NewScheduler(*cfg, logger)
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	logger.Info("worker started", zap.String("queue", cfg.Scheduler.Queue))
	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()
}
