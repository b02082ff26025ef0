package workforce

import (
	"math"
	"sort"
	"strings"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
)

// FallbackReasonManager is reported when a manager is suggested because no
// scored candidate survived filtering.
const FallbackReasonManager = "fallback_to_manager"

const neutralPerformance = 0.5

// Factors are the raw per-candidate inputs, returned for explainability.
type Factors struct {
	TerritoryMatch      bool    `json:"territoryMatch"`
	SpecializationMatch bool    `json:"specializationMatch"`
	WorkloadCapacity    float64 `json:"workloadCapacity"`
	PerformanceScore    float64 `json:"performanceScore"`
	Availability        bool    `json:"availability"`
}

// ScoredStaff is one ranked recommendation.
type ScoredStaff struct {
	StaffID     string  `json:"staffId"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	Score       float64 `json:"score"`
	Factors     Factors `json:"factors"`
}

// FallbackStaff is the manager suggested when nobody is eligible.
type FallbackStaff struct {
	StaffID     string `json:"staffId"`
	DisplayName string `json:"displayName"`
	Reason      string `json:"reason"`
}

// Recommendation is the outcome of an assignment request. Both fields empty
// means no assignee is available.
type Recommendation struct {
	RecommendedStaff []ScoredStaff              `json:"recommendedStaff"`
	FallbackStaff    *FallbackStaff             `json:"fallbackStaff,omitempty"`
	Excluded         map[string]ExclusionReason `json:"-"`
}

// HasAssignee reports whether anyone was suggested.
func (r Recommendation) HasAssignee() bool {
	return len(r.RecommendedStaff) > 0 || r.FallbackStaff != nil
}

// Roster is a point-in-time view of staff and their teams.
type Roster struct {
	Staff []domain.StaffRecord
	Teams []domain.TeamRecord
}

// Engine ranks staff for an assignment.
type Engine struct {
	weights      config.ScoringWeights
	defaultLimit int
	capacity     *CapacityModel
}

// NewEngine builds an engine from configuration.
func NewEngine(cfg config.WorkforceConfig) *Engine {
	limit := cfg.DefaultRecommendations
	if limit <= 0 {
		limit = 5
	}
	return &Engine{
		weights:      cfg.Weights,
		defaultLimit: limit,
		capacity:     NewCapacityModel(cfg),
	}
}

// Capacity exposes the capacity model the engine filters with.
func (e *Engine) Capacity() *CapacityModel {
	return e.capacity
}

// ComputeFactors evaluates every factor for staff. teams is keyed by team id.
func (e *Engine) ComputeFactors(staff *domain.StaffRecord, criteria domain.AssignmentCriteria, teams map[string]*domain.TeamRecord) Factors {
	return Factors{
		TerritoryMatch:      staff.HasTerritory(criteria.Territory),
		SpecializationMatch: specializationMatches(staff, criteria.Specialization, teams),
		WorkloadCapacity:    math.Max(0, 1-e.capacity.Utilization(staff.Workload, DimensionLeads)),
		PerformanceScore:    performanceScore(staff.Performance),
		Availability:        true,
	}
}

// Score applies the weights to f, rounded to two decimals.
func (e *Engine) Score(f Factors) float64 {
	total := e.weights.TerritoryMatch*boolScore(f.TerritoryMatch) +
		e.weights.SpecializationMatch*boolScore(f.SpecializationMatch) +
		e.weights.WorkloadCapacity*f.WorkloadCapacity +
		e.weights.PerformanceScore*f.PerformanceScore +
		e.weights.Availability*boolScore(f.Availability)
	return math.Round(total*100) / 100
}

// FindBestStaffForAssignment filters, scores and ranks the roster. limit <= 0
// uses the configured default. Ties keep roster order.
func (e *Engine) FindBestStaffForAssignment(criteria domain.AssignmentCriteria, roster Roster, limit int) Recommendation {
	if limit <= 0 {
		limit = e.defaultLimit
	}
	teams := indexTeams(roster.Teams)
	eligibility := e.capacity.FilterEligibleStaff(criteria, roster.Staff)

	scored := make([]ScoredStaff, 0, len(eligibility.Eligible))
	for i := range eligibility.Eligible {
		staff := &eligibility.Eligible[i]
		factors := e.ComputeFactors(staff, criteria, teams)
		scored = append(scored, ScoredStaff{
			StaffID:     staff.ID,
			DisplayName: staff.DisplayName,
			Email:       staff.Email,
			Score:       e.Score(factors),
			Factors:     factors,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	rec := Recommendation{RecommendedStaff: scored, Excluded: eligibility.Excluded}
	if len(scored) == 0 {
		rec.FallbackStaff = findFallbackManager(criteria, roster.Staff)
	}
	return rec
}

// findFallbackManager scans the whole roster, ignoring capacity.
func findFallbackManager(criteria domain.AssignmentCriteria, staff []domain.StaffRecord) *FallbackStaff {
	for i := range staff {
		s := &staff[i]
		if s.Role != domain.StaffRoleBrokerManager || s.Status != domain.StaffStatusActive {
			continue
		}
		if !s.HasTerritory(criteria.Territory) {
			continue
		}
		return &FallbackStaff{StaffID: s.ID, DisplayName: s.DisplayName, Reason: FallbackReasonManager}
	}
	return nil
}

func specializationMatches(staff *domain.StaffRecord, specialization string, teams map[string]*domain.TeamRecord) bool {
	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return true
	}
	for _, teamID := range staff.TeamIDs {
		team, ok := teams[teamID]
		if !ok {
			continue
		}
		for _, s := range team.Specializations {
			if strings.EqualFold(s, specialization) {
				return true
			}
		}
	}
	needle := strings.ToLower(specialization)
	for _, license := range staff.Licenses {
		if strings.Contains(strings.ToLower(license.Type), needle) {
			return true
		}
	}
	return false
}

func performanceScore(p domain.Performance) float64 {
	if p.LeadsReceived == nil || *p.LeadsReceived <= 0 {
		return neutralPerformance
	}
	ratio := float64(p.LeadsConverted) / float64(*p.LeadsReceived)
	return math.Min(1, math.Max(0, ratio))
}

func boolScore(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func indexTeams(teams []domain.TeamRecord) map[string]*domain.TeamRecord {
	out := make(map[string]*domain.TeamRecord, len(teams))
	for i := range teams {
		out[teams[i].ID] = &teams[i]
	}
	return out
}
