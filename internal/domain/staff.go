package domain

import "time"

// StaffStatus enumerates employment lifecycle states.
type StaffStatus string

const (
	StaffStatusActive     StaffStatus = "active"
	StaffStatusInactive   StaffStatus = "inactive"
	StaffStatusSuspended  StaffStatus = "suspended"
	StaffStatusOnLeave    StaffStatus = "on_leave"
	StaffStatusTerminated StaffStatus = "terminated"
)

// AllStaffStatuses lists every status in declaration order.
var AllStaffStatuses = []StaffStatus{
	StaffStatusActive,
	StaffStatusInactive,
	StaffStatusSuspended,
	StaffStatusOnLeave,
	StaffStatusTerminated,
}

// Valid reports whether s is a known status.
func (s StaffStatus) Valid() bool {
	for _, known := range AllStaffStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal returns true when no further transitions are possible.
func (s StaffStatus) IsTerminal() bool {
	return s == StaffStatusTerminated
}

// StaffRole enumerates back-office roles.
type StaffRole string

const (
	StaffRoleAdmin         StaffRole = "admin"
	StaffRoleBrokerManager StaffRole = "broker_manager"
	StaffRoleBroker        StaffRole = "broker"
	StaffRoleUnderwriter   StaffRole = "underwriter"
	StaffRoleSupport       StaffRole = "support"
)

// Valid reports whether r is a known role.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleAdmin, StaffRoleBrokerManager, StaffRoleBroker, StaffRoleUnderwriter, StaffRoleSupport:
		return true
	}
	return false
}

// Availability is derived from status and never set on its own.
type Availability struct {
	IsAvailable bool       `json:"isAvailable"`
	AwayUntil   *time.Time `json:"awayUntil,omitempty"`
	AwayReason  string     `json:"awayReason,omitempty"`
}

// Workload holds the live assignment counters for a staff member.
type Workload struct {
	ActiveLeads      int  `json:"activeLeads"`
	ActiveCustomers  int  `json:"activeCustomers"`
	ActivePolicies   int  `json:"activePolicies"`
	PendingApprovals int  `json:"pendingApprovals"`
	MaxLeads         *int `json:"maxLeads,omitempty"`
	MaxCustomers     *int `json:"maxCustomers,omitempty"`
}

// Performance is scoped to a single reporting period (YYYY-MM).
type Performance struct {
	Period           string  `json:"period"`
	LeadsReceived    *int    `json:"leadsReceived,omitempty"`
	LeadsConverted   int     `json:"leadsConverted"`
	PoliciesIssued   int     `json:"policiesIssued"`
	PremiumGenerated float64 `json:"premiumGenerated"`
}

// LicenseStatus is the derived validity state of a license.
type LicenseStatus string

const (
	LicenseStatusActive   LicenseStatus = "active"
	LicenseStatusExpiring LicenseStatus = "expiring"
	LicenseStatusExpired  LicenseStatus = "expired"
	LicenseStatusRevoked  LicenseStatus = "revoked"
)

// License is a regulatory license held by a staff member.
type License struct {
	Type             string        `json:"type"`
	Number           string        `json:"number"`
	IssuingAuthority string        `json:"issuingAuthority"`
	IssueDate        time.Time     `json:"issueDate"`
	ExpiryDate       time.Time     `json:"expiryDate"`
	Status           LicenseStatus `json:"status"`
}

// StaffRecord is the aggregate for a back-office staff member.
type StaffRecord struct {
	ID              string
	DisplayName     string
	Email           string
	PasswordHash    string
	Role            StaffRole
	Status          StaffStatus
	Availability    Availability
	StatusChangedAt *time.Time
	Territories     []string
	TeamIDs         []string
	Workload        Workload
	Performance     Performance
	Licenses        []License
	// AppliedEventIDs holds the most recent lifecycle event ids already
	// applied to Workload, oldest first.
	AppliedEventIDs []string
	Revision        int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasTerritory reports whether the staff member covers territoryID.
func (s *StaffRecord) HasTerritory(territoryID string) bool {
	return containsString(s.Territories, territoryID)
}

// InTeam reports whether the staff member belongs to teamID.
func (s *StaffRecord) InTeam(teamID string) bool {
	return containsString(s.TeamIDs, teamID)
}

// HasAppliedEvent reports whether eventID was already applied to this record.
func (s *StaffRecord) HasAppliedEvent(eventID string) bool {
	return containsString(s.AppliedEventIDs, eventID)
}

// RecordAppliedEvent remembers eventID, keeping at most window ids.
func (s *StaffRecord) RecordAppliedEvent(eventID string, window int) {
	ids := append(append([]string(nil), s.AppliedEventIDs...), eventID)
	if window > 0 && len(ids) > window {
		ids = ids[len(ids)-window:]
	}
	s.AppliedEventIDs = ids
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
