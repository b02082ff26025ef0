package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskLicenseSweep = "workforce.license_sweep"

const TaskTerritoryReconcile = "workforce.territory_reconcile"

// JobPayload records why and when a maintenance job was requested.
type JobPayload struct {
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewLicenseSweepTask(payload JobPayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLicenseSweep, data, opts...), nil
}

func NewTerritoryReconcileTask(payload JobPayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTerritoryReconcile, data, opts...), nil
}

// ParseJobPayload decodes a maintenance job payload. Scheduler-registered
// tasks may carry an empty payload.
func ParseJobPayload(task *asynq.Task) (JobPayload, error) {
	var payload JobPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return JobPayload{}, err
	}
	return payload, nil
}
