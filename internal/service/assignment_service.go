package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/repository"
	"github.com/spec-kit/workforce-service/internal/workforce"
)

// AssignmentService ranks staff for a new lead, customer or policy. It reads a
// point-in-time roster and reserves nothing; the caller performs the actual
// assignment and reports it back as a lifecycle event.
type AssignmentService struct {
	staff  repository.StaffRepository
	teams  repository.TeamRepository
	engine *workforce.Engine
	logger *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	StaffRepo repository.StaffRepository
	TeamRepo  repository.TeamRepository
	Logger    *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(cfg config.WorkforceConfig, deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		staff:  deps.StaffRepo,
		teams:  deps.TeamRepo,
		engine: workforce.NewEngine(cfg),
		logger: logger,
	}
}

// Engine exposes the scoring engine, mainly for capacity snapshots.
func (s *AssignmentService) Engine() *workforce.Engine {
	return s.engine
}

// Recommend validates criteria and returns the best candidates, or a fallback
// manager when nobody is eligible.
func (s *AssignmentService) Recommend(ctx context.Context, criteria domain.AssignmentCriteria, limit int) (workforce.Recommendation, error) {
	criteria, err := workforce.ValidateCriteria(criteria)
	if err != nil {
		return workforce.Recommendation{}, err
	}

	roster, err := s.snapshot(ctx)
	if err != nil {
		return workforce.Recommendation{}, err
	}

	rec := s.engine.FindBestStaffForAssignment(criteria, roster, limit)
	switch {
	case len(rec.RecommendedStaff) > 0:
		s.logger.Debug("assignment candidates ranked",
			zap.String("assignment_type", string(criteria.AssignmentType)),
			zap.String("territory", criteria.Territory),
			zap.Int("candidates", len(rec.RecommendedStaff)),
			zap.Int("excluded", len(rec.Excluded)))
	case rec.FallbackStaff != nil:
		s.logger.Info("no eligible staff; falling back to manager",
			zap.String("assignment_type", string(criteria.AssignmentType)),
			zap.String("territory", criteria.Territory),
			zap.String("manager_id", rec.FallbackStaff.StaffID))
	default:
		s.logger.Warn("no assignee available",
			zap.String("assignment_type", string(criteria.AssignmentType)),
			zap.String("territory", criteria.Territory),
			zap.Int("excluded", len(rec.Excluded)))
	}
	return rec, nil
}

func (s *AssignmentService) snapshot(ctx context.Context) (workforce.Roster, error) {
	var roster workforce.Roster
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		staff, err := s.staff.Roster(gctx)
		roster.Staff = staff
		return err
	})
	g.Go(func() error {
		teams, err := s.teams.List(gctx)
		roster.Teams = teams
		return err
	})
	if err := g.Wait(); err != nil {
		return workforce.Roster{}, err
	}
	return roster, nil
}
