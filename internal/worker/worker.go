package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/service"
)

// LicenseSweeper runs the license expiry sweep.
type LicenseSweeper interface {
	Sweep(ctx context.Context) (service.SweepReport, error)
}

// TerritoryReconciler rebuilds the territory reverse index.
type TerritoryReconciler interface {
	Reconcile(ctx context.Context) (service.ReconcileReport, error)
}

// Worker processes maintenance tasks from the asynq queue.
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	licenses    LicenseSweeper
	territories TerritoryReconciler
	logger      *zap.Logger
}

// NewWorker builds the asynq server and registers task handlers.
func NewWorker(cfg config.Config, licenses LicenseSweeper, territories TerritoryReconciler, logger *zap.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.Redis)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.Scheduler.Concurrency
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg.Scheduler): 1,
		},
	})

	w := &Worker{
		server:      server,
		mux:         asynq.NewServeMux(),
		licenses:    licenses,
		territories: territories,
		logger:      logger,
	}
	w.mux.HandleFunc(TaskLicenseSweep, w.handleLicenseSweep)
	w.mux.HandleFunc(TaskTerritoryReconcile, w.handleTerritoryReconcile)
	return w, nil
}

// Run blocks processing tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if err := w.server.Start(w.mux); err != nil {
		w.logger.Error("task worker failed to start", zap.Error(err))
		return
	}
	<-ctx.Done()
	w.server.Shutdown()
}

func (w *Worker) handleLicenseSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseJobPayload(task)
	if err != nil {
		return err
	}
	start := time.Now()
	report, err := w.licenses.Sweep(ctx)
	if err != nil {
		w.logger.Error("license sweep failed", zap.String("trigger", payload.Trigger), zap.Error(err))
		return err
	}
	w.logger.Info("license sweep completed",
		zap.String("trigger", payload.Trigger),
		zap.Int("emitted", report.Emitted),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (w *Worker) handleTerritoryReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseJobPayload(task)
	if err != nil {
		return err
	}
	report, err := w.territories.Reconcile(ctx)
	if err != nil {
		w.logger.Error("territory reconcile failed", zap.String("trigger", payload.Trigger), zap.Error(err))
		return err
	}
	w.logger.Info("territory reconcile completed",
		zap.String("trigger", payload.Trigger),
		zap.Int("territories", report.Territories),
		zap.Int("repaired", len(report.Repaired)))
	return nil
}
