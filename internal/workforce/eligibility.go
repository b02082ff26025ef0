package workforce

import "github.com/spec-kit/workforce-service/internal/domain"

// ExclusionReason explains why a roster entry was filtered out.
type ExclusionReason string

const (
	ExcludedCurrentOwner  ExclusionReason = "current_owner"
	ExcludedNotActive     ExclusionReason = "not_active"
	ExcludedUnavailable   ExclusionReason = "unavailable"
	ExcludedAtCapacity    ExclusionReason = "at_capacity"
	ExcludedTerritory     ExclusionReason = "territory_mismatch"
	ExcludedPreferredTeam ExclusionReason = "not_in_preferred_team"
)

// EligibilityResult is the candidate pool plus the reasons for every exclusion.
type EligibilityResult struct {
	Eligible []domain.StaffRecord
	Excluded map[string]ExclusionReason
}

// AvailabilityForAssignment returns "" when staff may take a new record of
// assignmentType, otherwise the reason it may not.
func (m *CapacityModel) AvailabilityForAssignment(staff *domain.StaffRecord, assignmentType domain.AssignmentType) ExclusionReason {
	if staff.Status != domain.StaffStatusActive {
		return ExcludedNotActive
	}
	if !staff.Availability.IsAvailable {
		return ExcludedUnavailable
	}
	if dim, gated := DimensionFor(assignmentType); gated && !m.CanAcceptNew(staff.Workload, dim) {
		return ExcludedAtCapacity
	}
	return ""
}

// IsAvailableForAssignment reports whether staff passes the availability gate.
func (m *CapacityModel) IsAvailableForAssignment(staff *domain.StaffRecord, assignmentType domain.AssignmentType) bool {
	return m.AvailabilityForAssignment(staff, assignmentType) == ""
}

// FilterEligibleStaff applies the hard exclusion rules and keeps roster order.
// Territory is a hard requirement; there is no partial-match fallback here.
func (m *CapacityModel) FilterEligibleStaff(criteria domain.AssignmentCriteria, roster []domain.StaffRecord) EligibilityResult {
	result := EligibilityResult{
		Eligible: make([]domain.StaffRecord, 0, len(roster)),
		Excluded: make(map[string]ExclusionReason),
	}
	for i := range roster {
		staff := &roster[i]
		if reason := m.exclusionReason(criteria, staff); reason != "" {
			result.Excluded[staff.ID] = reason
			continue
		}
		result.Eligible = append(result.Eligible, *staff)
	}
	return result
}

func (m *CapacityModel) exclusionReason(criteria domain.AssignmentCriteria, staff *domain.StaffRecord) ExclusionReason {
	if criteria.CurrentOwnerID != "" && staff.ID == criteria.CurrentOwnerID {
		return ExcludedCurrentOwner
	}
	if reason := m.AvailabilityForAssignment(staff, criteria.AssignmentType); reason != "" {
		return reason
	}
	if !staff.HasTerritory(criteria.Territory) {
		return ExcludedTerritory
	}
	if criteria.PreferredTeamID != "" && !staff.InTeam(criteria.PreferredTeamID) {
		return ExcludedPreferredTeam
	}
	return ""
}
