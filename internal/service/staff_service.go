package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/auth"
	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/repository"
	"github.com/spec-kit/workforce-service/internal/workforce"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
	"github.com/spec-kit/workforce-service/pkg/validation"
)

// StaffService manages staff records outside the status state machine.
type StaffService struct {
	staff       repository.StaffRepository
	territories repository.TerritoryRepository
	updater     staffUpdater
	capacity    *workforce.CapacityModel
	validator   *validation.Validator
	bcryptCost  int
	logger      *zap.Logger
	now         Clock
}

// StaffDependencies bundles repositories.
type StaffDependencies struct {
	StaffRepo     repository.StaffRepository
	TerritoryRepo repository.TerritoryRepository
	Validator     *validation.Validator
	Logger        *zap.Logger
	Clock         Clock
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	v := deps.Validator
	if v == nil {
		v = validation.New()
	}
	return &StaffService{
		staff:       deps.StaffRepo,
		territories: deps.TerritoryRepo,
		updater:     staffUpdater{repo: deps.StaffRepo, attempts: cfg.Workforce.OptimisticRetryAttempts, logger: logger},
		capacity:    workforce.NewCapacityModel(cfg.Workforce),
		validator:   v,
		bcryptCost:  cfg.Auth.BcryptCost,
		logger:      logger,
		now:         now,
	}
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Status    *domain.StaffStatus
	Role      *domain.StaffRole
	Territory *string
	TeamID    *string
	Limit     int
	Offset    int
}

// HireInput holds the fields for a new staff member.
type HireInput struct {
	DisplayName  string
	Email        string
	Password     string
	Role         domain.StaffRole
	Territories  []string
	Licenses     []domain.License
	MaxLeads     *int
	MaxCustomers *int
}

// StaffView is a staff record with its derived capacity figures.
type StaffView struct {
	Staff    *domain.StaffRecord
	Capacity workforce.CapacitySnapshot
}

// Hire creates an active, available staff member with a zeroed workload and a
// performance record for the current period.
func (s *StaffService) Hire(ctx context.Context, input HireInput) (*domain.StaffRecord, error) {
	now := s.now()
	details := map[string]any{}
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		details["displayName"] = "required"
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validator.Var(email, "required,email"); err != nil {
		details["email"] = "must be a valid address"
	}
	if !input.Role.Valid() {
		details["role"] = "unknown role"
	}
	validateLimits(input.MaxLeads, input.MaxCustomers, details)
	licenses, licenseDetails := validateLicenses(input.Licenses, now)
	for k, v := range licenseDetails {
		details[k] = v
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid staff member", details)
	}

	if _, err := s.staff.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	territories := normalizeIDs(input.Territories)
	if len(territories) > 0 {
		missing, err := s.territories.MissingIDs(ctx, territories)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return nil, apperrors.NewNotFound("territory", map[string]any{"territory_ids": missing})
		}
	}

	var hash string
	if input.Password != "" {
		h, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		hash = h
	}

	staff := &domain.StaffRecord{
		ID:              uuid.NewString(),
		DisplayName:     name,
		Email:           email,
		PasswordHash:    hash,
		Role:            input.Role,
		Status:          domain.StaffStatusActive,
		Availability:    workforce.AvailabilityFor(domain.StaffStatusActive, "", nil),
		StatusChangedAt: &now,
		Territories:     territories,
		TeamIDs:         []string{},
		Workload:        domain.Workload{MaxLeads: input.MaxLeads, MaxCustomers: input.MaxCustomers},
		Performance:     domain.Performance{Period: workforce.CurrentPeriod(now)},
		Licenses:        licenses,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, err
	}
	for _, territoryID := range territories {
		if err := s.territories.AddStaff(ctx, territoryID, staff.ID); err != nil {
			s.logger.Error("territory index out of sync; reconcile will repair",
				zap.String("staff_id", staff.ID),
				zap.String("territory_id", territoryID),
				zap.Error(err))
		}
	}
	s.logger.Info("staff hired", zap.String("staff_id", staff.ID), zap.String("role", string(staff.Role)))
	return staff, nil
}

// Get fetches a staff member with capacity figures.
func (s *StaffService) Get(ctx context.Context, staffID string) (*StaffView, error) {
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, staffLookupError(err, staffID)
	}
	return &StaffView{Staff: staff, Capacity: s.capacity.Snapshot(staff.Workload)}, nil
}

// List returns staff matching filters.
func (s *StaffService) List(ctx context.Context, filters StaffListFilters) ([]domain.StaffRecord, error) {
	if filters.Status != nil && !filters.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status filter", map[string]any{"status": string(*filters.Status)})
	}
	return s.staff.List(ctx, repository.StaffFilter{
		Status:    filters.Status,
		Role:      filters.Role,
		Territory: filters.Territory,
		TeamID:    filters.TeamID,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	})
}

// WorkloadUpdate is an administrative correction of counters or limits.
// Nil fields are left unchanged; ResetPeriod starts a fresh performance
// period.
type WorkloadUpdate struct {
	ActiveLeads      *int
	ActiveCustomers  *int
	ActivePolicies   *int
	PendingApprovals *int
	MaxLeads         *int
	MaxCustomers     *int
	ResetPeriod      bool
}

// UpdateWorkload applies an administrative workload correction.
func (s *StaffService) UpdateWorkload(ctx context.Context, staffID string, update WorkloadUpdate) (*StaffView, error) {
	details := map[string]any{}
	for name, v := range map[string]*int{
		"activeLeads":      update.ActiveLeads,
		"activeCustomers":  update.ActiveCustomers,
		"activePolicies":   update.ActivePolicies,
		"pendingApprovals": update.PendingApprovals,
	} {
		if v != nil && *v < 0 {
			details[name] = "must not be negative"
		}
	}
	validateLimits(update.MaxLeads, update.MaxCustomers, details)
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid workload update", details)
	}

	period := workforce.CurrentPeriod(s.now())
	staff, err := s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
		w := &staff.Workload
		setIfPresent(&w.ActiveLeads, update.ActiveLeads)
		setIfPresent(&w.ActiveCustomers, update.ActiveCustomers)
		setIfPresent(&w.ActivePolicies, update.ActivePolicies)
		setIfPresent(&w.PendingApprovals, update.PendingApprovals)
		if update.MaxLeads != nil {
			w.MaxLeads = update.MaxLeads
		}
		if update.MaxCustomers != nil {
			w.MaxCustomers = update.MaxCustomers
		}
		if update.ResetPeriod && staff.Performance.Period != period {
			staff.Performance = domain.Performance{Period: period}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("staff workload updated", zap.String("staff_id", staffID))
	return &StaffView{Staff: staff, Capacity: s.capacity.Snapshot(staff.Workload)}, nil
}

// UpdateLicenses replaces the staff member's licenses after validating them.
func (s *StaffService) UpdateLicenses(ctx context.Context, staffID string, licenses []domain.License) (*domain.StaffRecord, error) {
	validated, details := validateLicenses(licenses, s.now())
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid licenses", details)
	}
	return s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
		if staff.Status.IsTerminal() {
			return apperrors.NewConflict("terminated staff cannot be changed", map[string]any{"staff_id": staffID})
		}
		staff.Licenses = validated
		return nil
	})
}

func validateLicenses(licenses []domain.License, now time.Time) ([]domain.License, map[string]any) {
	out := make([]domain.License, 0, len(licenses))
	details := map[string]any{}
	seen := map[string]int{}
	for i, l := range licenses {
		validated, err := workforce.ValidateLicense(l, now)
		if err != nil {
			if de := apperrors.ToDomainError(err); de != nil && de.Details != nil {
				details[fmt.Sprintf("licenses[%d]", i)] = de.Details
			} else {
				details[fmt.Sprintf("licenses[%d]", i)] = err.Error()
			}
			continue
		}
		key := strings.ToLower(validated.Type) + "|" + validated.Number
		if prev, dup := seen[key]; dup {
			details[fmt.Sprintf("licenses[%d]", i)] = fmt.Sprintf("duplicates licenses[%d]", prev)
			continue
		}
		seen[key] = i
		out = append(out, validated)
	}
	return out, details
}

func validateLimits(maxLeads, maxCustomers *int, details map[string]any) {
	if maxLeads != nil && *maxLeads <= 0 {
		details["maxLeads"] = "must be positive"
	}
	if maxCustomers != nil && *maxCustomers <= 0 {
		details["maxCustomers"] = "must be positive"
	}
}

func setIfPresent(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
