package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/repository"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

// TerritoryService owns the staff/territory cross-index. The staff record is
// the source of truth; territories.assigned_staff_ids is a reverse index that
// is written second and repaired by Reconcile.
type TerritoryService struct {
	staff       repository.StaffRepository
	territories repository.TerritoryRepository
	updater     staffUpdater
	logger      *zap.Logger
}

// TerritoryDependencies bundles repositories.
type TerritoryDependencies struct {
	StaffRepo     repository.StaffRepository
	TerritoryRepo repository.TerritoryRepository
	Logger        *zap.Logger
}

// NewTerritoryService creates the service.
func NewTerritoryService(cfg config.WorkforceConfig, deps TerritoryDependencies) *TerritoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TerritoryService{
		staff:       deps.StaffRepo,
		territories: deps.TerritoryRepo,
		updater:     staffUpdater{repo: deps.StaffRepo, attempts: cfg.OptimisticRetryAttempts, logger: logger},
		logger:      logger,
	}
}

// CreateTerritory registers a territory. An empty id gets a generated one.
func (s *TerritoryService) CreateTerritory(ctx context.Context, id, name string) (*domain.TerritoryRecord, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("territory name is required", map[string]any{"name": "required"})
	}
	if id == "" {
		id = uuid.NewString()
	}
	if _, err := s.territories.GetByID(ctx, id); err == nil {
		return nil, apperrors.NewConflict("territory already exists", map[string]any{"territory_id": id})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	territory := &domain.TerritoryRecord{ID: id, Name: name}
	if err := s.territories.Create(ctx, territory); err != nil {
		return nil, err
	}
	return territory, nil
}

// GetTerritory fetches a single territory.
func (s *TerritoryService) GetTerritory(ctx context.Context, id string) (*domain.TerritoryRecord, error) {
	territory, err := s.territories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("territory", map[string]any{"territory_id": id})
		}
		return nil, err
	}
	return territory, nil
}

// ListTerritories returns every territory.
func (s *TerritoryService) ListTerritories(ctx context.Context) ([]domain.TerritoryRecord, error) {
	return s.territories.List(ctx)
}

// AssignStaffTerritories applies op with territories to the staff member.
// Every territory must exist. The staff record is written first; a failure
// on the reverse index is logged and left for Reconcile.
func (s *TerritoryService) AssignStaffTerritories(ctx context.Context, staffID string, op domain.TerritoryOperation, territories []string) (*domain.StaffRecord, error) {
	if !op.Valid() {
		return nil, apperrors.NewValidationError("invalid territory operation", map[string]any{"operation": string(op)})
	}
	territories = normalizeIDs(territories)
	if len(territories) == 0 && op != domain.TerritoryOpReplace {
		return nil, apperrors.NewValidationError("at least one territory is required", map[string]any{"territories": "required"})
	}
	if err := s.requireTerritories(ctx, territories); err != nil {
		return nil, err
	}

	var before []string
	staff, err := s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
		before = append([]string(nil), staff.Territories...)
		next := applyTerritoryOp(staff.Territories, op, territories)
		if sameSet(before, next) {
			return errSkipWrite
		}
		staff.Territories = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	added, removed := diffIDs(before, staff.Territories)
	s.syncReverseIndex(ctx, staffID, added, removed)
	s.logger.Info("staff territories updated",
		zap.String("staff_id", staffID),
		zap.String("operation", string(op)),
		zap.Strings("added", added),
		zap.Strings("removed", removed))
	return staff, nil
}

func (s *TerritoryService) requireTerritories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := s.territories.MissingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperrors.NewNotFound("territory", map[string]any{"territory_ids": missing})
	}
	return nil
}

func (s *TerritoryService) syncReverseIndex(ctx context.Context, staffID string, added, removed []string) {
	for _, territoryID := range added {
		if err := s.territories.AddStaff(ctx, territoryID, staffID); err != nil {
			s.logger.Error("territory index out of sync; reconcile will repair",
				zap.String("staff_id", staffID),
				zap.String("territory_id", territoryID),
				zap.Error(err))
		}
	}
	for _, territoryID := range removed {
		if err := s.territories.RemoveStaff(ctx, territoryID, staffID); err != nil {
			s.logger.Error("territory index out of sync; reconcile will repair",
				zap.String("staff_id", staffID),
				zap.String("territory_id", territoryID),
				zap.Error(err))
		}
	}
}

// TerritoryDrift is one repaired reverse index entry.
type TerritoryDrift struct {
	TerritoryID string   `json:"territoryId"`
	Added       []string `json:"added,omitempty"`
	Removed     []string `json:"removed,omitempty"`
}

// ReconcileReport summarizes a reconciliation run.
type ReconcileReport struct {
	Territories int              `json:"territories"`
	Repaired    []TerritoryDrift `json:"repaired"`
	// UnknownReferences maps staff ids to territory ids that do not exist.
	UnknownReferences map[string][]string `json:"unknownReferences,omitempty"`
}

// Reconcile rebuilds every territory's assigned staff list from the staff
// records and reports what had drifted.
func (s *TerritoryService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	roster, err := s.staff.Roster(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}
	territories, err := s.territories.List(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}

	known := make(map[string]struct{}, len(territories))
	for _, t := range territories {
		known[t.ID] = struct{}{}
	}
	expected := make(map[string][]string, len(territories))
	report := ReconcileReport{Territories: len(territories), Repaired: []TerritoryDrift{}}
	for _, staff := range roster {
		for _, territoryID := range staff.Territories {
			if _, ok := known[territoryID]; !ok {
				if report.UnknownReferences == nil {
					report.UnknownReferences = make(map[string][]string)
				}
				report.UnknownReferences[staff.ID] = append(report.UnknownReferences[staff.ID], territoryID)
				continue
			}
			expected[territoryID] = append(expected[territoryID], staff.ID)
		}
	}

	for _, territory := range territories {
		want := expected[territory.ID]
		if sameSet(territory.AssignedStaffIDs, want) {
			continue
		}
		added, removed := diffIDs(territory.AssignedStaffIDs, want)
		if err := s.territories.SetAssignedStaff(ctx, territory.ID, want); err != nil {
			return report, err
		}
		report.Repaired = append(report.Repaired, TerritoryDrift{TerritoryID: territory.ID, Added: added, Removed: removed})
		s.logger.Warn("territory index drift repaired",
			zap.String("territory_id", territory.ID),
			zap.Strings("added", added),
			zap.Strings("removed", removed))
	}
	return report, nil
}

func applyTerritoryOp(current []string, op domain.TerritoryOperation, territories []string) []string {
	switch op {
	case domain.TerritoryOpAdd:
		return appendUnique(current, territories...)
	case domain.TerritoryOpRemove:
		out := append([]string(nil), current...)
		for _, t := range territories {
			out = removeString(out, t)
		}
		return out
	default:
		return append([]string{}, territories...)
	}
}

// normalizeIDs trims, drops blanks and de-duplicates while keeping order.
func normalizeIDs(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = appendUnique(out, v)
		}
	}
	return out
}

// diffIDs returns ids present only in after, and ids present only in before.
func diffIDs(before, after []string) (added, removed []string) {
	in := func(values []string, target string) bool {
		for _, v := range values {
			if v == target {
				return true
			}
		}
		return false
	}
	for _, v := range after {
		if !in(before, v) {
			added = append(added, v)
		}
	}
	for _, v := range before {
		if !in(after, v) {
			removed = append(removed, v)
		}
	}
	return added, removed
}

func sameSet(a, b []string) bool {
	x := normalizeIDs(a)
	y := normalizeIDs(b)
	if len(x) != len(y) {
		return false
	}
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
