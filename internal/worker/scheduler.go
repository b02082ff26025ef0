package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/config"
)

// Scheduler enqueues the periodic maintenance jobs on their cron schedules.
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *zap.Logger
}

// NewScheduler registers the license sweep and territory reconcile crons.
// An empty cron expression disables that job.
func NewScheduler(cfg config.Config, logger *zap.Logger) (*Scheduler, error) {
	opt, err := redisClientOpt(cfg.Redis)
	if err != nil {
		return nil, err
	}
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})

	opts := []asynq.Option{asynq.Queue(queueName(cfg.Scheduler)), asynq.Timeout(cfg.Scheduler.TaskTimeout())}
	jobs := []struct {
		cron  string
		build func(JobPayload, ...asynq.Option) (*asynq.Task, error)
	}{
		{cron: cfg.Scheduler.LicenseSweepCron, build: NewLicenseSweepTask},
		{cron: cfg.Scheduler.ReconcileCron, build: NewTerritoryReconcileTask},
	}
	for _, job := range jobs {
		if job.cron == "" {
			continue
		}
		task, err := job.build(JobPayload{Trigger: "cron"}, opts...)
		if err != nil {
			return nil, err
		}
		id, err := scheduler.Register(job.cron, task)
		if err != nil {
			return nil, err
		}
		logger.Info("scheduled job registered", zap.String("task", task.Type()), zap.String("cron", job.cron), zap.String("entry_id", id))
	}
	return &Scheduler{scheduler: scheduler, logger: logger}, nil
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if s == nil || s.scheduler == nil {
		return
	}
	if err := s.scheduler.Start(); err != nil {
		s.logger.Error("scheduler failed to start", zap.Error(err))
		return
	}
	<-ctx.Done()
	s.scheduler.Shutdown()
}
