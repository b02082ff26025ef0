package events

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/workforce-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

// Lifecycle events emitted by the lead, customer and policy domains.
const (
	EventLeadCreated      EventType = "lead.created"
	EventLeadAssigned     EventType = "lead.assigned"
	EventLeadConverted    EventType = "lead.converted"
	EventLeadClosed       EventType = "lead.closed"
	EventCustomerCreated  EventType = "customer.created"
	EventCustomerAssigned EventType = "customer.assigned"
	EventPolicyIssued     EventType = "policy.issued"
	EventPolicyAssigned   EventType = "policy.assigned"
)

// Events emitted by this service.
const (
	EventStaffStatusChanged   EventType = "staff.status_changed"
	EventStaffLicenseExpiring EventType = "staff.license_expiring"
	EventStaffLicenseExpired  EventType = "staff.license_expired"
)

// LifecycleEventTypes lists every event that moves workload counters.
var LifecycleEventTypes = []EventType{
	EventLeadCreated,
	EventLeadAssigned,
	EventLeadConverted,
	EventLeadClosed,
	EventCustomerCreated,
	EventCustomerAssigned,
	EventPolicyIssued,
	EventPolicyAssigned,
}

// IsLifecycle reports whether t is a workload-moving event.
func (t EventType) IsLifecycle() bool {
	for _, lt := range LifecycleEventTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// Event represents a domain event on the in-process bus.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// LifecyclePayload is the common shape of lead/customer/policy events.
type LifecyclePayload struct {
	EntityID           string             `json:"entityId"`
	AssignedTo         domain.AssigneeRef `json:"assignedTo"`
	PreviousAssignedTo domain.AssigneeRef `json:"previousAssignedTo"`
	Premium            float64            `json:"premium,omitempty"`
}

// DecodeLifecyclePayload parses a raw lifecycle payload, resolving the
// single-or-many assignee shape.
func DecodeLifecyclePayload(raw json.RawMessage) (LifecyclePayload, error) {
	var payload LifecyclePayload
	if len(raw) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(raw, &payload)
	return payload, err
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	StaffID                      string             `json:"staffId"`
	PreviousStatus               domain.StaffStatus `json:"previousStatus"`
	CurrentStatus                domain.StaffStatus `json:"currentStatus"`
	Reason                       string             `json:"reason,omitempty"`
	ChangedAt                    time.Time          `json:"changedAt"`
	RequiresWorkloadReassignment bool               `json:"requiresWorkloadReassignment"`
}

// LicenseAlertPayload payload.
type LicenseAlertPayload struct {
	StaffID         string    `json:"staffId"`
	DisplayName     string    `json:"displayName"`
	Email           string    `json:"email"`
	LicenseType     string    `json:"licenseType"`
	LicenseNumber   string    `json:"licenseNumber"`
	ExpiryDate      time.Time `json:"expiryDate"`
	DaysUntilExpiry int       `json:"daysUntilExpiry"`
	ThresholdDays   int       `json:"thresholdDays"`
}
