package dto

import (
	"time"

	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/workforce"
)

// LicenseRequest is one license in a hire or license update payload.
type LicenseRequest struct {
	Type             string    `json:"type" validate:"required,max=64"`
	Number           string    `json:"number" validate:"required,max=32"`
	IssuingAuthority string    `json:"issuingAuthority" validate:"required,max=128"`
	IssueDate        time.Time `json:"issueDate" validate:"required"`
	ExpiryDate       time.Time `json:"expiryDate" validate:"required"`
	Revoked          bool      `json:"revoked"`
}

// HireStaffRequest payload for POST /staff.
type HireStaffRequest struct {
	DisplayName  string           `json:"displayName" validate:"required,max=200"`
	Email        string           `json:"email" validate:"required,email"`
	Password     string           `json:"password" validate:"omitempty,min=8,max=72"`
	Role         string           `json:"role" validate:"required,staffrole"`
	Territories  []string         `json:"territories" validate:"omitempty,dive,required"`
	Licenses     []LicenseRequest `json:"licenses" validate:"omitempty,dive"`
	MaxLeads     *int             `json:"maxLeads" validate:"omitempty,gt=0"`
	MaxCustomers *int             `json:"maxCustomers" validate:"omitempty,gt=0"`
}

// UpdateLicensesRequest replaces a staff member's licenses.
type UpdateLicensesRequest struct {
	Licenses []LicenseRequest `json:"licenses" validate:"dive"`
}

// WorkloadUpdateRequest corrects counters or limits. Omitted fields stay.
type WorkloadUpdateRequest struct {
	ActiveLeads      *int `json:"activeLeads" validate:"omitempty,min=0"`
	ActiveCustomers  *int `json:"activeCustomers" validate:"omitempty,min=0"`
	ActivePolicies   *int `json:"activePolicies" validate:"omitempty,min=0"`
	PendingApprovals *int `json:"pendingApprovals" validate:"omitempty,min=0"`
	MaxLeads         *int `json:"maxLeads" validate:"omitempty,gt=0"`
	MaxCustomers     *int `json:"maxCustomers" validate:"omitempty,gt=0"`
	ResetPeriod      bool `json:"resetPeriod"`
}

// StatusChangeRequest payload for POST /staff/:id/status.
type StatusChangeRequest struct {
	Status    string     `json:"status" validate:"required,staffstatus"`
	Reason    string     `json:"reason" validate:"max=500"`
	AwayUntil *time.Time `json:"awayUntil"`
}

// StatusChangeResponse reports an accepted transition.
type StatusChangeResponse struct {
	StaffID                      string              `json:"staffId"`
	PreviousStatus               domain.StaffStatus  `json:"previousStatus"`
	CurrentStatus                domain.StaffStatus  `json:"currentStatus"`
	StatusChangedAt              time.Time           `json:"statusChangedAt"`
	Availability                 domain.Availability `json:"availability"`
	Reason                       string              `json:"reason,omitempty"`
	RequiresWorkloadReassignment bool                `json:"requiresWorkloadReassignment"`
}

// StaffResponse is the public shape of a staff record.
type StaffResponse struct {
	ID              string                      `json:"id"`
	DisplayName     string                      `json:"displayName"`
	Email           string                      `json:"email"`
	Role            domain.StaffRole            `json:"role"`
	Status          domain.StaffStatus          `json:"status"`
	Availability    domain.Availability         `json:"availability"`
	StatusChangedAt *time.Time                  `json:"statusChangedAt,omitempty"`
	Territories     []string                    `json:"territories"`
	TeamIDs         []string                    `json:"teamIds"`
	Workload        domain.Workload             `json:"workload"`
	Performance     domain.Performance          `json:"performance"`
	Licenses        []domain.License            `json:"licenses"`
	Capacity        *workforce.CapacitySnapshot `json:"capacity,omitempty"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}
