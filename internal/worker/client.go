package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/persistence"
)

// Client enqueues maintenance jobs for the worker process.
type Client struct {
	client  *asynq.Client
	queue   string
	timeout time.Duration
}

// NewClient connects an asynq client to the configured redis.
func NewClient(cfg config.Config) (*Client, error) {
	opt, err := redisClientOpt(cfg.Redis)
	if err != nil {
		return nil, err
	}
	return &Client{
		client:  asynq.NewClient(opt),
		queue:   queueName(cfg.Scheduler),
		timeout: cfg.Scheduler.TaskTimeout(),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueLicenseSweep schedules an immediate license sweep.
func (c *Client) EnqueueLicenseSweep(ctx context.Context, trigger string) (string, error) {
	task, err := NewLicenseSweepTask(JobPayload{Trigger: trigger, RequestedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

// EnqueueTerritoryReconcile schedules an immediate territory index rebuild.
func (c *Client) EnqueueTerritoryReconcile(ctx context.Context, trigger string) (string, error) {
	task, err := NewTerritoryReconcileTask(JobPayload{Trigger: trigger, RequestedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task) (string, error) {
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.Timeout(c.timeout),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func redisClientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	opt, err := persistence.RedisOptions(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if cfg.Queue == "" {
		return "default"
	}
	return cfg.Queue
}
