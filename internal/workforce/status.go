// Package workforce holds the staff lifecycle and assignment rules: the status
// state machine, the capacity model, eligibility filtering and scoring. It
// performs no I/O; services in internal/service load records, call in here and
// persist the outcome.
package workforce

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/workforce-service/internal/domain"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

const defaultLeaveReason = "On leave"

var statusTransitions = map[domain.StaffStatus][]domain.StaffStatus{
	domain.StaffStatusActive: {
		domain.StaffStatusInactive,
		domain.StaffStatusSuspended,
		domain.StaffStatusOnLeave,
		domain.StaffStatusTerminated,
	},
	domain.StaffStatusInactive:   {domain.StaffStatusActive, domain.StaffStatusTerminated},
	domain.StaffStatusSuspended:  {domain.StaffStatusActive, domain.StaffStatusTerminated},
	domain.StaffStatusOnLeave:    {domain.StaffStatusActive},
	domain.StaffStatusTerminated: {},
}

// AllowedTransitions returns the statuses reachable from current.
func AllowedTransitions(current domain.StaffStatus) []domain.StaffStatus {
	return append([]domain.StaffStatus(nil), statusTransitions[current]...)
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to domain.StaffStatus) bool {
	if from == to {
		return false
	}
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionRequest is an administrative status change.
type TransitionRequest struct {
	Target    domain.StaffStatus
	Reason    string
	AwayUntil *time.Time
}

// TransitionResult describes an accepted status change.
type TransitionResult struct {
	PreviousStatus  domain.StaffStatus  `json:"previousStatus"`
	CurrentStatus   domain.StaffStatus  `json:"currentStatus"`
	StatusChangedAt time.Time           `json:"statusChangedAt"`
	Availability    domain.Availability `json:"availability"`
	Reason          string              `json:"reason,omitempty"`
}

// RequestTransition validates a status change for staff and computes the new
// availability. It does not mutate staff; see ApplyTransition.
func RequestTransition(staff *domain.StaffRecord, req TransitionRequest, now time.Time) (TransitionResult, error) {
	if staff == nil {
		return TransitionResult{}, apperrors.NewValidationError("staff record required", nil)
	}
	if !req.Target.Valid() {
		return TransitionResult{}, apperrors.NewValidationError("unknown status", map[string]any{"status": req.Target})
	}
	current := staff.Status
	details := map[string]any{"staff_id": staff.ID, "from": current, "to": req.Target}
	if current == req.Target {
		return TransitionResult{}, apperrors.NewInvalidTransition(fmt.Sprintf("staff is already in status %s", current), details)
	}
	if !CanTransition(current, req.Target) {
		details["allowed"] = AllowedTransitions(current)
		return TransitionResult{}, apperrors.NewInvalidTransition(fmt.Sprintf("cannot change status from %s to %s", current, req.Target), details)
	}

	reason := strings.TrimSpace(req.Reason)
	return TransitionResult{
		PreviousStatus:  current,
		CurrentStatus:   req.Target,
		StatusChangedAt: now.UTC(),
		Availability:    AvailabilityFor(req.Target, reason, req.AwayUntil),
		Reason:          reason,
	}, nil
}

// AvailabilityFor derives availability from a status.
func AvailabilityFor(status domain.StaffStatus, reason string, awayUntil *time.Time) domain.Availability {
	switch status {
	case domain.StaffStatusActive:
		return domain.Availability{IsAvailable: true}
	case domain.StaffStatusOnLeave:
		if reason == "" {
			reason = defaultLeaveReason
		}
		var until *time.Time
		if awayUntil != nil {
			t := awayUntil.UTC()
			until = &t
		}
		return domain.Availability{IsAvailable: false, AwayUntil: until, AwayReason: reason}
	default:
		if reason == "" {
			reason = "Status: " + string(status)
		}
		return domain.Availability{IsAvailable: false, AwayReason: reason}
	}
}

// ApplyTransition writes an accepted result onto the record.
func ApplyTransition(staff *domain.StaffRecord, result TransitionResult) {
	changedAt := result.StatusChangedAt
	staff.Status = result.CurrentStatus
	staff.Availability = result.Availability
	staff.StatusChangedAt = &changedAt
}

// RequiresWorkloadReassignment is true only when leaving active for any other status.
func RequiresWorkloadReassignment(previous, target domain.StaffStatus) bool {
	return previous == domain.StaffStatusActive && target != domain.StaffStatusActive
}
