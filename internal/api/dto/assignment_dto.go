package dto

import (
	"encoding/json"
	"time"
)

// AssignmentRequest payload for POST /assignments/recommend.
type AssignmentRequest struct {
	AssignmentType  string `json:"assignmentType" validate:"required,assignmenttype"`
	Territory       string `json:"territory" validate:"required,max=64"`
	Specialization  string `json:"specialization" validate:"max=64"`
	CurrentOwnerID  string `json:"currentOwnerId"`
	PreferredTeamID string `json:"preferredTeamId"`
	Urgency         string `json:"urgency" validate:"omitempty,oneof=normal high critical"`
	Limit           int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

// EventEnvelope is a lifecycle event delivered by an upstream domain.
type EventEnvelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type" validate:"required"`
	OccurredAt *time.Time      `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}
