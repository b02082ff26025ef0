package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/spec-kit/workforce-service/internal/domain"
)

// TeamRepository manages persistence for teams.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.TeamRecord) error
	GetByID(ctx context.Context, id string) (*domain.TeamRecord, error)
	List(ctx context.Context) ([]domain.TeamRecord, error)
	// AddMember appends staffID to the member list. It reports false when
	// staffID was already a member.
	AddMember(ctx context.Context, teamID, staffID string) (bool, error)
	// RemoveMember drops staffID from the member list unless it is the
	// leader or the last member. It reports false when nothing changed.
	RemoveMember(ctx context.Context, teamID, staffID string) (bool, error)
}

type teamRepository struct {
	db DB
}

// NewTeamRepository constructs repository.
func NewTeamRepository(db DB) TeamRepository {
	return &teamRepository{db: db}
}

const teamColumns = `id, name, type, leader_id, member_ids, territories, specializations, created_at, updated_at`

func (r *teamRepository) Create(ctx context.Context, team *domain.TeamRecord) error {
	const query = `
        INSERT INTO teams (id, name, type, leader_id, member_ids, territories, specializations)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		team.ID,
		team.Name,
		team.Type,
		team.LeaderID,
		nonNil(team.MemberIDs),
		nonNil(team.Territories),
		nonNil(team.Specializations),
	).Scan(&team.CreatedAt, &team.UpdatedAt)
	return eris.Wrap(err, "team: insert")
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.TeamRecord, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id=$1`
	team, err := scanTeam(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "team: get %s", id)
	}
	return team, nil
}

func (r *teamRepository) List(ctx context.Context) ([]domain.TeamRecord, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "team: list")
	}
	defer rows.Close()

	result := []domain.TeamRecord{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, eris.Wrap(err, "team: scan")
		}
		result = append(result, *team)
	}
	return result, eris.Wrap(rows.Err(), "team: list")
}

func (r *teamRepository) AddMember(ctx context.Context, teamID, staffID string) (bool, error) {
	const query = `
        UPDATE teams SET member_ids=array_append(member_ids, $2), updated_at=NOW()
        WHERE id=$1 AND NOT ($2 = ANY(member_ids))`
	cmd, err := r.db.Exec(ctx, query, teamID, staffID)
	if err != nil {
		return false, eris.Wrapf(err, "team: add member %s", teamID)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID, staffID string) (bool, error) {
	const query = `
        UPDATE teams SET member_ids=array_remove(member_ids, $2), updated_at=NOW()
        WHERE id=$1 AND leader_id<>$2 AND $2 = ANY(member_ids) AND cardinality(member_ids) > 1`
	cmd, err := r.db.Exec(ctx, query, teamID, staffID)
	if err != nil {
		return false, eris.Wrapf(err, "team: remove member %s", teamID)
	}
	return cmd.RowsAffected() > 0, nil
}

func scanTeam(row rowScanner) (*domain.TeamRecord, error) {
	var team domain.TeamRecord
	if err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Type,
		&team.LeaderID,
		&team.MemberIDs,
		&team.Territories,
		&team.Specializations,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}
