package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/events"
	"github.com/spec-kit/workforce-service/internal/observability"
	"github.com/spec-kit/workforce-service/internal/repository"
	"github.com/spec-kit/workforce-service/internal/workforce"
)

// WorkloadService applies lifecycle events to staff workload counters and
// performance figures.
type WorkloadService struct {
	updater staffUpdater
	logger  *zap.Logger
	metrics *observability.Metrics
	now     Clock
}

// WorkloadDependencies bundles collaborators.
type WorkloadDependencies struct {
	StaffRepo repository.StaffRepository
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Clock     Clock
}

// NewWorkloadService creates the service.
func NewWorkloadService(cfg config.WorkforceConfig, deps WorkloadDependencies) *WorkloadService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	return &WorkloadService{
		updater: staffUpdater{repo: deps.StaffRepo, attempts: cfg.OptimisticRetryAttempts, logger: logger},
		logger:  logger,
		metrics: deps.Metrics,
		now:     now,
	}
}

// RegisterHandlers subscribes to every lifecycle event.
func (s *WorkloadService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range events.LifecycleEventTypes {
		dispatcher.Subscribe(eventType, s.HandleLifecycleEvent)
	}
}

// appliedEventWindow bounds how many applied event ids a staff record keeps.
const appliedEventWindow = 200

// workloadDelta is one staff member's share of an event.
type workloadDelta struct {
	increment   []workforce.Counter
	decrement   []workforce.Counter
	performance func(*domain.Performance)
}

// HandleLifecycleEvent moves counters for the staff referenced by the event.
// Malformed payloads and unknown staff are logged and dropped; only storage
// failures are returned. Each staff member applies a given event id at most
// once, so a redelivery after a partial failure only touches the staff the
// first attempt missed.
func (s *WorkloadService) HandleLifecycleEvent(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LifecyclePayload)
	if !ok {
		if p, isPtr := event.Payload.(*events.LifecyclePayload); isPtr && p != nil {
			payload, ok = *p, true
		}
	}
	if !ok {
		s.drop(event, "", "malformed payload")
		return nil
	}

	assignees := payload.AssignedTo.IDs()
	if len(assignees) == 0 {
		s.drop(event, "", "missing assignee")
		return nil
	}

	plan := s.plan(event.Type, payload, assignees)
	if len(plan) == 0 {
		s.drop(event, "", "unsupported event type")
		return nil
	}

	var (
		errs       []error
		duplicates int
	)
	targets := orderedKeys(plan, assignees, payload.PreviousAssignedTo.IDs())
	for _, staffID := range targets {
		duplicate, err := s.apply(ctx, event, staffID, plan[staffID])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if duplicate {
			duplicates++
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.metrics.RecordEvent(string(event.Type), observability.EventFailed)
		return err
	}
	if duplicates == len(targets) {
		s.metrics.RecordEvent(string(event.Type), observability.EventDuplicate)
		return nil
	}
	s.metrics.RecordEvent(string(event.Type), observability.EventApplied)
	return nil
}

func (s *WorkloadService) plan(eventType events.EventType, payload events.LifecyclePayload, assignees []string) map[string]workloadDelta {
	plan := make(map[string]workloadDelta)
	reassign := func(counter workforce.Counter, perf func(*domain.Performance)) {
		for _, id := range assignees {
			plan[id] = workloadDelta{increment: []workforce.Counter{counter}, performance: perf}
		}
		for _, id := range payload.PreviousAssignedTo.IDs() {
			if payload.AssignedTo.Contains(id) {
				continue
			}
			plan[id] = workloadDelta{decrement: []workforce.Counter{counter}}
		}
	}

	switch eventType {
	case events.EventLeadCreated, events.EventLeadAssigned:
		reassign(workforce.CounterActiveLeads, func(p *domain.Performance) {
			received := 1
			if p.LeadsReceived != nil {
				received = *p.LeadsReceived + 1
			}
			p.LeadsReceived = &received
		})
	case events.EventCustomerCreated, events.EventCustomerAssigned:
		reassign(workforce.CounterActiveCustomers, nil)
	case events.EventPolicyAssigned:
		reassign(workforce.CounterActivePolicies, nil)
	case events.EventLeadConverted:
		for _, id := range assignees {
			plan[id] = workloadDelta{
				increment:   []workforce.Counter{workforce.CounterActiveCustomers},
				decrement:   []workforce.Counter{workforce.CounterActiveLeads},
				performance: func(p *domain.Performance) { p.LeadsConverted++ },
			}
		}
	case events.EventLeadClosed:
		for _, id := range assignees {
			plan[id] = workloadDelta{decrement: []workforce.Counter{workforce.CounterActiveLeads}}
		}
	case events.EventPolicyIssued:
		share := payload.Premium / float64(len(assignees))
		for _, id := range assignees {
			plan[id] = workloadDelta{
				increment: []workforce.Counter{workforce.CounterActivePolicies},
				performance: func(p *domain.Performance) {
					p.PoliciesIssued++
					p.PremiumGenerated += share
				},
			}
		}
	}
	return plan
}

// apply writes delta to one staff record and reports whether the event had
// already been applied there.
func (s *WorkloadService) apply(ctx context.Context, event events.Event, staffID string, delta workloadDelta) (bool, error) {
	period := workforce.CurrentPeriod(s.now())
	duplicate := false
	_, err := s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
		duplicate = event.ID != "" && staff.HasAppliedEvent(event.ID)
		if duplicate {
			return errSkipWrite
		}
		if event.ID != "" {
			staff.RecordAppliedEvent(event.ID, appliedEventWindow)
		}
		for _, c := range delta.increment {
			workforce.Increment(&staff.Workload, c)
		}
		for _, c := range delta.decrement {
			workforce.Decrement(&staff.Workload, c)
		}
		if delta.performance == nil {
			return nil
		}
		if staff.Performance.Period != period {
			s.logger.Warn("performance period mismatch; rollup skipped",
				zap.String("staff_id", staffID),
				zap.String("event_type", string(event.Type)),
				zap.String("stored_period", staff.Performance.Period),
				zap.String("current_period", period))
			return nil
		}
		delta.performance(&staff.Performance)
		return nil
	})
	if err == nil {
		if duplicate {
			s.logger.Info("lifecycle event already applied",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("staff_id", staffID))
		}
		return duplicate, nil
	}
	if errors.Is(err, repository.ErrNotFound) || isNotFound(err) {
		s.drop(event, staffID, "unknown staff")
		return false, nil
	}
	return false, err
}

func (s *WorkloadService) drop(event events.Event, staffID, reason string) {
	s.logger.Warn("lifecycle event dropped",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("staff_id", staffID),
		zap.String("reason", reason))
	s.metrics.RecordEvent(string(event.Type), observability.EventDropped)
}

// orderedKeys yields plan keys deterministically: assignees first, then
// previous assignees.
func orderedKeys(plan map[string]workloadDelta, groups ...[]string) []string {
	seen := make(map[string]struct{}, len(plan))
	out := make([]string, 0, len(plan))
	for _, group := range groups {
		for _, id := range group {
			if _, ok := plan[id]; !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
