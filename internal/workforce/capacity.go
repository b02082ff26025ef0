package workforce

import (
	"math"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
)

const floatTolerance = 1e-9

// Dimension is a capacity-limited workload axis.
type Dimension string

const (
	DimensionLeads     Dimension = "leads"
	DimensionCustomers Dimension = "customers"
)

// Counter names a workload counter that lifecycle events move.
type Counter string

const (
	CounterActiveLeads      Counter = "activeLeads"
	CounterActiveCustomers  Counter = "activeCustomers"
	CounterActivePolicies   Counter = "activePolicies"
	CounterPendingApprovals Counter = "pendingApprovals"
)

// Band classifies utilization against the configured thresholds.
type Band string

const (
	BandAvailable    Band = "available"
	BandWarning      Band = "warning"
	BandAtCapacity   Band = "at_capacity"
	BandOverCapacity Band = "over_capacity"
)

// Increment adds one to counter. Going past the maximum is allowed; it
// reflects real over-allocation.
func Increment(w *domain.Workload, counter Counter) {
	if p := counterRef(w, counter); p != nil {
		*p++
	}
}

// Decrement subtracts one from counter, clamping at zero.
func Decrement(w *domain.Workload, counter Counter) {
	if p := counterRef(w, counter); p != nil && *p > 0 {
		*p--
	}
}

// CounterValue reads counter from w.
func CounterValue(w domain.Workload, counter Counter) int {
	if p := counterRef(&w, counter); p != nil {
		return *p
	}
	return 0
}

func counterRef(w *domain.Workload, counter Counter) *int {
	switch counter {
	case CounterActiveLeads:
		return &w.ActiveLeads
	case CounterActiveCustomers:
		return &w.ActiveCustomers
	case CounterActivePolicies:
		return &w.ActivePolicies
	case CounterPendingApprovals:
		return &w.PendingApprovals
	default:
		return nil
	}
}

// CapacityModel evaluates utilization using configured maxima and thresholds.
type CapacityModel struct {
	defaultMaxLeads     int
	defaultMaxCustomers int
	warning             float64
	block               float64
}

// NewCapacityModel builds a model from configuration.
func NewCapacityModel(cfg config.WorkforceConfig) *CapacityModel {
	return &CapacityModel{
		defaultMaxLeads:     cfg.DefaultMaxLeads,
		defaultMaxCustomers: cfg.DefaultMaxCustomers,
		warning:             cfg.WarningThreshold,
		block:               cfg.BlockThreshold,
	}
}

// Max returns the configured or default maximum for dim.
func (m *CapacityModel) Max(w domain.Workload, dim Dimension) int {
	switch dim {
	case DimensionLeads:
		if w.MaxLeads != nil && *w.MaxLeads > 0 {
			return *w.MaxLeads
		}
		return m.defaultMaxLeads
	case DimensionCustomers:
		if w.MaxCustomers != nil && *w.MaxCustomers > 0 {
			return *w.MaxCustomers
		}
		return m.defaultMaxCustomers
	default:
		return 0
	}
}

// Current returns the live count for dim.
func (m *CapacityModel) Current(w domain.Workload, dim Dimension) int {
	switch dim {
	case DimensionLeads:
		return w.ActiveLeads
	case DimensionCustomers:
		return w.ActiveCustomers
	default:
		return 0
	}
}

// Utilization is current / max for dim.
func (m *CapacityModel) Utilization(w domain.Workload, dim Dimension) float64 {
	limit := m.Max(w, dim)
	if limit <= 0 {
		return 0
	}
	return float64(m.Current(w, dim)) / float64(limit)
}

// OverallUtilization blends lead and customer utilization. It feeds scoring
// only and never gates eligibility.
func (m *CapacityModel) OverallUtilization(w domain.Workload) float64 {
	return (m.Utilization(w, DimensionLeads) + m.Utilization(w, DimensionCustomers)) / 2
}

// Band classifies the utilization of dim.
func (m *CapacityModel) Band(w domain.Workload, dim Dimension) Band {
	return m.bandFor(m.Utilization(w, dim))
}

func (m *CapacityModel) bandFor(u float64) Band {
	switch {
	case math.Abs(u-m.block) <= floatTolerance:
		return BandAtCapacity
	case u > m.block:
		return BandOverCapacity
	case u >= m.warning:
		return BandWarning
	default:
		return BandAvailable
	}
}

// CanAcceptNew is the hard capacity gate for dim.
func (m *CapacityModel) CanAcceptNew(w domain.Workload, dim Dimension) bool {
	return m.Utilization(w, dim) < m.block-floatTolerance
}

// DimensionSnapshot reports one capacity axis.
type DimensionSnapshot struct {
	Current      int     `json:"current"`
	Max          int     `json:"max"`
	Utilization  float64 `json:"utilization"`
	Band         Band    `json:"band"`
	CanAcceptNew bool    `json:"canAcceptNew"`
}

// CapacitySnapshot is the read model exposed by the staff API.
type CapacitySnapshot struct {
	Leads              DimensionSnapshot `json:"leads"`
	Customers          DimensionSnapshot `json:"customers"`
	OverallUtilization float64           `json:"overallUtilization"`
}

// Snapshot computes every capacity figure for w.
func (m *CapacityModel) Snapshot(w domain.Workload) CapacitySnapshot {
	dim := func(d Dimension) DimensionSnapshot {
		return DimensionSnapshot{
			Current:      m.Current(w, d),
			Max:          m.Max(w, d),
			Utilization:  m.Utilization(w, d),
			Band:         m.Band(w, d),
			CanAcceptNew: m.CanAcceptNew(w, d),
		}
	}
	return CapacitySnapshot{
		Leads:              dim(DimensionLeads),
		Customers:          dim(DimensionCustomers),
		OverallUtilization: m.OverallUtilization(w),
	}
}

// DimensionFor maps an assignment type onto its capacity axis. Policies have
// no capacity gate.
func DimensionFor(t domain.AssignmentType) (Dimension, bool) {
	switch t {
	case domain.AssignmentTypeLead:
		return DimensionLeads, true
	case domain.AssignmentTypeCustomer:
		return DimensionCustomers, true
	default:
		return "", false
	}
}
