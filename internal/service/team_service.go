package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/repository"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

// TeamService manages team membership. staff.teamIds is written before
// team.memberIds, mirroring the territory index.
type TeamService struct {
	staff       repository.StaffRepository
	teams       repository.TeamRepository
	territories repository.TerritoryRepository
	updater     staffUpdater
	logger      *zap.Logger
}

// TeamDependencies bundles repositories.
type TeamDependencies struct {
	StaffRepo     repository.StaffRepository
	TeamRepo      repository.TeamRepository
	TerritoryRepo repository.TerritoryRepository
	Logger        *zap.Logger
}

// NewTeamService creates the service.
func NewTeamService(cfg config.WorkforceConfig, deps TeamDependencies) *TeamService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{
		staff:       deps.StaffRepo,
		teams:       deps.TeamRepo,
		territories: deps.TerritoryRepo,
		updater:     staffUpdater{repo: deps.StaffRepo, attempts: cfg.OptimisticRetryAttempts, logger: logger},
		logger:      logger,
	}
}

// CreateTeamInput holds the fields for a new team.
type CreateTeamInput struct {
	Name            string
	Type            domain.TeamType
	LeaderID        string
	MemberIDs       []string
	Territories     []string
	Specializations []string
}

// CreateTeam creates a team. The leader is always a member.
func (s *TeamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*domain.TeamRecord, error) {
	details := map[string]any{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		details["name"] = "required"
	}
	if !input.Type.Valid() {
		details["type"] = "must be one of sales, service, underwriting, claims"
	}
	leaderID := strings.TrimSpace(input.LeaderID)
	if leaderID == "" {
		details["leaderId"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid team", details)
	}

	members := normalizeIDs(append([]string{leaderID}, input.MemberIDs...))
	for _, id := range members {
		staff, err := s.staff.GetByID(ctx, id)
		if err != nil {
			return nil, staffLookupError(err, id)
		}
		if staff.Status.IsTerminal() {
			return nil, apperrors.NewValidationError("terminated staff cannot join a team", map[string]any{"staff_id": id})
		}
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

	team := &domain.TeamRecord{
		ID:              uuid.NewString(),
		Name:            name,
		Type:            input.Type,
		LeaderID:        leaderID,
		MemberIDs:       members,
		Territories:     territories,
		Specializations: normalizeIDs(input.Specializations),
	}
	joined := make([]string, 0, len(members))
	for _, id := range members {
		if err := s.joinTeam(ctx, id, team.ID); err != nil {
			s.undoJoins(ctx, joined, team.ID)
			return nil, err
		}
		joined = append(joined, id)
	}
	if err := s.teams.Create(ctx, team); err != nil {
		s.undoJoins(ctx, joined, team.ID)
		return nil, err
	}
	s.logger.Info("team created", zap.String("team_id", team.ID), zap.Int("members", len(members)))
	return team, nil
}

// GetTeam fetches a team.
func (s *TeamService) GetTeam(ctx context.Context, teamID string) (*domain.TeamRecord, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, err
	}
	return team, nil
}

// ListTeams returns every team.
func (s *TeamService) ListTeams(ctx context.Context) ([]domain.TeamRecord, error) {
	return s.teams.List(ctx)
}

// AddMember puts staffID on the team.
func (s *TeamService) AddMember(ctx context.Context, teamID, staffID string) (*domain.TeamRecord, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.HasMember(staffID) {
		return nil, apperrors.NewConflict("staff is already a team member", map[string]any{"team_id": teamID, "staff_id": staffID})
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, staffLookupError(err, staffID)
	}
	if staff.Status.IsTerminal() {
		return nil, apperrors.NewValidationError("terminated staff cannot join a team", map[string]any{"staff_id": staffID})
	}

	if err := s.joinTeam(ctx, staffID, teamID); err != nil {
		return nil, err
	}
	added, err := s.teams.AddMember(ctx, teamID, staffID)
	if err != nil {
		s.logger.Error("team membership out of sync",
			zap.String("team_id", teamID),
			zap.String("staff_id", staffID),
			zap.Error(err))
		return nil, err
	}
	if !added {
		return nil, apperrors.NewConflict("staff is already a team member", map[string]any{"team_id": teamID, "staff_id": staffID})
	}
	team.MemberIDs = appendUnique(team.MemberIDs, staffID)
	return team, nil
}

// RemoveMember takes staffID off the team. The leader cannot be removed and
// nobody may be left without a team.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, staffID string) (*domain.TeamRecord, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(staffID) {
		return nil, apperrors.NewNotFound("team member", map[string]any{"team_id": teamID, "staff_id": staffID})
	}
	if team.LeaderID == staffID {
		return nil, apperrors.NewConflict("cannot remove the team leader", map[string]any{"team_id": teamID, "staff_id": staffID})
	}

	_, err = s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
		if !staff.InTeam(teamID) {
			return errSkipWrite
		}
		if len(staff.TeamIDs) == 1 {
			return apperrors.NewConflict("staff must belong to at least one team", map[string]any{"team_id": teamID, "staff_id": staffID})
		}
		staff.TeamIDs = removeString(staff.TeamIDs, teamID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	removed, err := s.teams.RemoveMember(ctx, teamID, staffID)
	if err != nil {
		s.logger.Error("team membership out of sync",
			zap.String("team_id", teamID),
			zap.String("staff_id", staffID),
			zap.Error(err))
		return nil, err
	}
	if !removed {
		s.logger.Warn("team member already removed", zap.String("team_id", teamID), zap.String("staff_id", staffID))
	}
	team.MemberIDs = removeString(team.MemberIDs, staffID)
	return team, nil
}

func (s *TeamService) joinTeam(ctx context.Context, staffID, teamID string) error {
	_, err := s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
		if staff.InTeam(teamID) {
			return errSkipWrite
		}
		staff.TeamIDs = appendUnique(staff.TeamIDs, teamID)
		return nil
	})
	return err
}

// undoJoins takes teamID back off staff records written by a failed
// CreateTeam. Failures are logged; the team never existed, so a leftover id
// only names a missing team.
func (s *TeamService) undoJoins(ctx context.Context, staffIDs []string, teamID string) {
	for _, id := range staffIDs {
		_, err := s.updater.update(ctx, id, func(staff *domain.StaffRecord) error {
			if !staff.InTeam(teamID) {
				return errSkipWrite
			}
			staff.TeamIDs = removeString(staff.TeamIDs, teamID)
			return nil
		})
		if err != nil {
			s.logger.Error("team rollback failed",
				zap.String("team_id", teamID),
				zap.String("staff_id", id),
				zap.Error(err))
		}
	}
}
