package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/events"
	"github.com/spec-kit/workforce-service/internal/repository"
	"github.com/spec-kit/workforce-service/internal/workforce"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

const statusLockPrefix = "staff-status:"

// StatusService runs administrative status changes through the state
// machine, one at a time per staff member.
type StatusService struct {
	updater    staffUpdater
	locker     Locker
	lockTTL    time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// StatusDependencies bundles collaborators.
type StatusDependencies struct {
	StaffRepo  repository.StaffRepository
	Locker     Locker
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// NewStatusService creates the service.
func NewStatusService(cfg config.WorkforceConfig, deps StatusDependencies) *StatusService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	return &StatusService{
		updater:    staffUpdater{repo: deps.StaffRepo, attempts: cfg.OptimisticRetryAttempts, logger: logger},
		locker:     deps.Locker,
		lockTTL:    cfg.StatusLockTTL,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        now,
	}
}

// ChangeStatus applies req to the staff member and publishes
// staff.status_changed. It never reassigns workload itself; subscribers read
// requiresWorkloadReassignment from the event.
func (s *StatusService) ChangeStatus(ctx context.Context, staffID string, req workforce.TransitionRequest) (workforce.TransitionResult, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, statusLockPrefix+staffID, s.lockTTL)
		if err != nil {
			if ctx.Err() != nil {
				return workforce.TransitionResult{}, ctx.Err()
			}
			return workforce.TransitionResult{}, apperrors.NewConflict("another status change for this staff member is in progress", map[string]any{"staff_id": staffID})
		}
		defer release()
	}

	var result workforce.TransitionResult
	_, err := s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
		r, err := workforce.RequestTransition(staff, req, s.now())
		if err != nil {
			return err
		}
		workforce.ApplyTransition(staff, r)
		result = r
		return nil
	})
	if err != nil {
		return workforce.TransitionResult{}, err
	}

	s.logger.Info("staff status changed",
		zap.String("staff_id", staffID),
		zap.String("from", string(result.PreviousStatus)),
		zap.String("to", string(result.CurrentStatus)))
	s.publish(ctx, staffID, result)
	return result, nil
}

func (s *StatusService) publish(ctx context.Context, staffID string, result workforce.TransitionResult) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventStaffStatusChanged,
		Timestamp: result.StatusChangedAt,
		Payload: events.StatusChangedPayload{
			StaffID:                      staffID,
			PreviousStatus:               result.PreviousStatus,
			CurrentStatus:                result.CurrentStatus,
			Reason:                       result.Reason,
			ChangedAt:                    result.StatusChangedAt,
			RequiresWorkloadReassignment: workforce.RequiresWorkloadReassignment(result.PreviousStatus, result.CurrentStatus),
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("status change event delivery failed", zap.String("staff_id", staffID), zap.Error(err))
	}
}
