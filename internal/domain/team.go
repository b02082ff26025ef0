package domain

import "time"

// TeamType classifies the kind of team.
type TeamType string

const (
	TeamTypeSales        TeamType = "sales"
	TeamTypeService      TeamType = "service"
	TeamTypeUnderwriting TeamType = "underwriting"
	TeamTypeClaims       TeamType = "claims"
)

// Valid reports whether t is a known team type.
func (t TeamType) Valid() bool {
	switch t {
	case TeamTypeSales, TeamTypeService, TeamTypeUnderwriting, TeamTypeClaims:
		return true
	}
	return false
}

// TeamRecord groups staff members under a leader.
type TeamRecord struct {
	ID              string
	Name            string
	Type            TeamType
	LeaderID        string
	MemberIDs       []string
	Territories     []string
	Specializations []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasMember reports whether staffID is on the team.
func (t *TeamRecord) HasMember(staffID string) bool {
	return containsString(t.MemberIDs, staffID)
}

// TerritoryRecord is a geographic or operational region.
type TerritoryRecord struct {
	ID               string
	Name             string
	AssignedStaffIDs []string
	AssignedTeamIDs  []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasStaff reports whether staffID is in the reverse index.
func (t *TerritoryRecord) HasStaff(staffID string) bool {
	return containsString(t.AssignedStaffIDs, staffID)
}

// TerritoryOperation selects how a territory list is applied to a staff
// member's current territories.
type TerritoryOperation string

const (
	TerritoryOpAdd     TerritoryOperation = "add"
	TerritoryOpRemove  TerritoryOperation = "remove"
	TerritoryOpReplace TerritoryOperation = "replace"
)

// Valid reports whether op is a known operation.
func (op TerritoryOperation) Valid() bool {
	return op == TerritoryOpAdd || op == TerritoryOpRemove || op == TerritoryOpReplace
}
