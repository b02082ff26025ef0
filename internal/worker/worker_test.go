package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/service"
)

type stubJobs struct {
	sweeps     int
	reconciles int
	err        error
}

func (s *stubJobs) Sweep(context.Context) (service.SweepReport, error) {
	s.sweeps++
	return service.SweepReport{Emitted: 2}, s.err
}

func (s *stubJobs) Reconcile(context.Context) (service.ReconcileReport, error) {
	s.reconciles++
	return service.ReconcileReport{Territories: 3}, s.err
}

func TestHandlersRunJobs(t *testing.T) {
	jobs := &stubJobs{}
	w := &Worker{licenses: jobs, territories: jobs, logger: zap.NewNop()}

	sweep, err := NewLicenseSweepTask(JobPayload{Trigger: "manual"})
	require.NoError(t, err)
	require.NoError(t, w.handleLicenseSweep(context.Background(), sweep))

	reconcile, err := NewTerritoryReconcileTask(JobPayload{Trigger: "cron"})
	require.NoError(t, err)
	require.NoError(t, w.handleTerritoryReconcile(context.Background(), reconcile))

	assert.Equal(t, 1, jobs.sweeps)
	assert.Equal(t, 1, jobs.reconciles)
}

func TestHandlersSurfaceFailuresForRetry(t *testing.T) {
	jobs := &stubJobs{err: errors.New("db down")}
	w := &Worker{licenses: jobs, territories: jobs, logger: zap.NewNop()}

	sweep, err := NewLicenseSweepTask(JobPayload{})
	require.NoError(t, err)
	assert.Error(t, w.handleLicenseSweep(context.Background(), sweep))
}

func TestParseJobPayloadAcceptsEmptyAndRejectsGarbage(t *testing.T) {
	payload, err := ParseJobPayload(asynq.NewTask(TaskLicenseSweep, nil))
	require.NoError(t, err)
	assert.Empty(t, payload.Trigger)

	_, err = ParseJobPayload(asynq.NewTask(TaskLicenseSweep, []byte("{")))
	assert.Error(t, err)
}

func TestRedisClientOptPrefersURL(t *testing.T) {
	opt, err := redisClientOpt(config.RedisConfig{URL: "redis://:pw@cache:6380/2", Addr: "ignored:6379"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)

	opt, err = redisClientOpt(config.RedisConfig{Addr: "127.0.0.1:6379", DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opt.Addr)
	assert.Equal(t, 1, opt.DB)
}
