package workforce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
)

func newTestEngine() *Engine {
	return NewEngine(config.DefaultWorkforceConfig())
}

func activeStaff(id string, territories ...string) domain.StaffRecord {
	return domain.StaffRecord{
		ID:           id,
		DisplayName:  "Staff " + id,
		Email:        id + "@example.com",
		Role:         domain.StaffRoleBroker,
		Status:       domain.StaffStatusActive,
		Availability: domain.Availability{IsAvailable: true},
		Territories:  territories,
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := config.DefaultWorkforceConfig().Weights
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
}

func TestFilterAlwaysExcludesCurrentOwner(t *testing.T) {
	capacity := newTestCapacity()
	owner := activeStaff("owner", "dubai")
	other := activeStaff("other", "dubai")
	criteria := domain.AssignmentCriteria{
		AssignmentType: domain.AssignmentTypeLead,
		Territory:      "dubai",
		CurrentOwnerID: "owner",
	}

	result := capacity.FilterEligibleStaff(criteria, []domain.StaffRecord{owner, other})

	require.Len(t, result.Eligible, 1)
	assert.Equal(t, "other", result.Eligible[0].ID)
	assert.Equal(t, ExcludedCurrentOwner, result.Excluded["owner"])
}

func TestFilterExclusionReasons(t *testing.T) {
	capacity := newTestCapacity()

	onLeave := activeStaff("leave", "dubai")
	onLeave.Status = domain.StaffStatusOnLeave
	away := activeStaff("away", "dubai")
	away.Availability.IsAvailable = false
	full := activeStaff("full", "dubai")
	full.Workload = domain.Workload{ActiveLeads: 20}
	elsewhere := activeStaff("elsewhere", "abu_dhabi")
	otherTeam := activeStaff("other-team", "dubai")
	otherTeam.TeamIDs = []string{"team-b"}
	match := activeStaff("match", "dubai")
	match.TeamIDs = []string{"team-a"}

	criteria := domain.AssignmentCriteria{
		AssignmentType:  domain.AssignmentTypeLead,
		Territory:       "dubai",
		PreferredTeamID: "team-a",
	}
	result := capacity.FilterEligibleStaff(criteria, []domain.StaffRecord{onLeave, away, full, elsewhere, otherTeam, match})

	require.Len(t, result.Eligible, 1)
	assert.Equal(t, "match", result.Eligible[0].ID)
	assert.Equal(t, map[string]ExclusionReason{
		"leave":      ExcludedNotActive,
		"away":       ExcludedUnavailable,
		"full":       ExcludedAtCapacity,
		"elsewhere":  ExcludedTerritory,
		"other-team": ExcludedPreferredTeam,
	}, result.Excluded)
}

func TestPolicyAssignmentHasNoCapacityGate(t *testing.T) {
	capacity := newTestCapacity()
	full := activeStaff("full", "dubai")
	full.Workload = domain.Workload{ActiveLeads: 40, ActiveCustomers: 90}

	assert.True(t, capacity.IsAvailableForAssignment(&full, domain.AssignmentTypePolicy))
	assert.False(t, capacity.IsAvailableForAssignment(&full, domain.AssignmentTypeLead))
	assert.False(t, capacity.IsAvailableForAssignment(&full, domain.AssignmentTypeCustomer))
}

func TestLowerUtilizationRanksHigher(t *testing.T) {
	engine := newTestEngine()
	busy := activeStaff("busy", "dubai")
	busy.Workload = domain.Workload{ActiveLeads: 12}
	idle := activeStaff("idle", "dubai")
	idle.Workload = domain.Workload{ActiveLeads: 2}

	rec := engine.FindBestStaffForAssignment(domain.AssignmentCriteria{
		AssignmentType: domain.AssignmentTypeLead,
		Territory:      "dubai",
	}, Roster{Staff: []domain.StaffRecord{busy, idle}}, 0)

	require.Len(t, rec.RecommendedStaff, 2)
	assert.Equal(t, "idle", rec.RecommendedStaff[0].StaffID)
	assert.Greater(t, rec.RecommendedStaff[0].Score, rec.RecommendedStaff[1].Score)
	assert.Nil(t, rec.FallbackStaff)
}

func TestScoreFactorsAndRounding(t *testing.T) {
	engine := newTestEngine()
	received := 10
	staff := activeStaff("s1", "dubai")
	staff.TeamIDs = []string{"team-motor"}
	staff.Workload = domain.Workload{ActiveLeads: 5}
	staff.Performance = domain.Performance{LeadsReceived: &received, LeadsConverted: 3}
	teams := []domain.TeamRecord{{ID: "team-motor", Specializations: []string{"Motor"}}}

	rec := engine.FindBestStaffForAssignment(domain.AssignmentCriteria{
		AssignmentType: domain.AssignmentTypeLead,
		Territory:      "dubai",
		Specialization: "motor",
	}, Roster{Staff: []domain.StaffRecord{staff}, Teams: teams}, 0)

	require.Len(t, rec.RecommendedStaff, 1)
	got := rec.RecommendedStaff[0]
	assert.Equal(t, Factors{
		TerritoryMatch:      true,
		SpecializationMatch: true,
		WorkloadCapacity:    0.75,
		PerformanceScore:    0.3,
		Availability:        true,
	}, got.Factors)
	// 0.30 + 0.20 + 0.25*0.75 + 0.15*0.3 + 0.10 = 0.8325
	assert.Equal(t, 0.83, got.Score)
	assert.Equal(t, "s1@example.com", got.Email)
}

func TestSpecializationMatch(t *testing.T) {
	engine := newTestEngine()
	teams := map[string]*domain.TeamRecord{
		"t1": {ID: "t1", Specializations: []string{"Health"}},
	}

	viaTeam := activeStaff("a", "dubai")
	viaTeam.TeamIDs = []string{"t1"}
	viaLicense := activeStaff("b", "dubai")
	viaLicense.Licenses = []domain.License{{Type: "General-Motor-Insurance"}}
	none := activeStaff("c", "dubai")

	tests := []struct {
		name           string
		staff          domain.StaffRecord
		specialization string
		want           bool
	}{
		{"no specialization requested", none, "", true},
		{"team specialization case-insensitive", viaTeam, "health", true},
		{"license type substring", viaLicense, "MOTOR", true},
		{"no match", none, "marine", false},
		{"team without that specialization", viaTeam, "motor", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := engine.ComputeFactors(&tt.staff, domain.AssignmentCriteria{Territory: "dubai", Specialization: tt.specialization}, teams)
			assert.Equal(t, tt.want, f.SpecializationMatch)
		})
	}
}

func TestPerformanceScoreDefaultsAndClamps(t *testing.T) {
	zero := 0
	five := 5
	assert.Equal(t, 0.5, performanceScore(domain.Performance{}))
	assert.Equal(t, 0.5, performanceScore(domain.Performance{LeadsReceived: &zero, LeadsConverted: 2}))
	assert.Equal(t, 1.0, performanceScore(domain.Performance{LeadsReceived: &five, LeadsConverted: 9}))
	assert.Equal(t, 0.4, performanceScore(domain.Performance{LeadsReceived: &five, LeadsConverted: 2}))
}

func TestWorkloadCapacityNeverNegative(t *testing.T) {
	engine := newTestEngine()
	over := activeStaff("over", "dubai")
	over.Workload = domain.Workload{ActiveLeads: 30}

	f := engine.ComputeFactors(&over, domain.AssignmentCriteria{Territory: "dubai"}, nil)

	assert.Equal(t, 0.0, f.WorkloadCapacity)
}

func TestTiesKeepRosterOrderAndLimit(t *testing.T) {
	engine := newTestEngine()
	roster := make([]domain.StaffRecord, 0, 7)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		roster = append(roster, activeStaff(id, "dubai"))
	}
	criteria := domain.AssignmentCriteria{AssignmentType: domain.AssignmentTypeLead, Territory: "dubai"}

	rec := engine.FindBestStaffForAssignment(criteria, Roster{Staff: roster}, 0)
	ids := make([]string, 0, len(rec.RecommendedStaff))
	for _, s := range rec.RecommendedStaff {
		ids = append(ids, s.StaffID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)

	rec = engine.FindBestStaffForAssignment(criteria, Roster{Staff: roster}, 2)
	assert.Len(t, rec.RecommendedStaff, 2)
}

func TestFallbackToManager(t *testing.T) {
	engine := newTestEngine()
	criteria := domain.AssignmentCriteria{AssignmentType: domain.AssignmentTypeLead, Territory: "sharjah"}

	dubaiOnly := []domain.StaffRecord{activeStaff("b1", "dubai"), activeStaff("b2", "dubai")}
	dubaiManager := activeStaff("m-dubai", "dubai")
	dubaiManager.Role = domain.StaffRoleBrokerManager

	rec := engine.FindBestStaffForAssignment(criteria, Roster{Staff: append(dubaiOnly, dubaiManager)}, 0)
	assert.Empty(t, rec.RecommendedStaff)
	assert.Nil(t, rec.FallbackStaff)
	assert.False(t, rec.HasAssignee())

	busyManager := activeStaff("m-sharjah", "sharjah")
	busyManager.Role = domain.StaffRoleBrokerManager
	busyManager.Workload = domain.Workload{ActiveLeads: 25}
	suspendedManager := activeStaff("m-suspended", "sharjah")
	suspendedManager.Role = domain.StaffRoleBrokerManager
	suspendedManager.Status = domain.StaffStatusSuspended

	roster := Roster{Staff: []domain.StaffRecord{dubaiOnly[0], suspendedManager, busyManager}}
	rec = engine.FindBestStaffForAssignment(criteria, roster, 0)
	assert.Empty(t, rec.RecommendedStaff)
	require.NotNil(t, rec.FallbackStaff)
	assert.Equal(t, "m-sharjah", rec.FallbackStaff.StaffID)
	assert.Equal(t, FallbackReasonManager, rec.FallbackStaff.Reason)
	assert.True(t, rec.HasAssignee())
}

func TestScoreIsRoundedToTwoDecimals(t *testing.T) {
	engine := newTestEngine()
	score := engine.Score(Factors{WorkloadCapacity: 1.0 / 3, PerformanceScore: 1.0 / 7})
	assert.Equal(t, score, math.Round(score*100)/100)
}
