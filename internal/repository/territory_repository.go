package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/spec-kit/workforce-service/internal/domain"
)

// TerritoryRepository manages territories and their staff reverse index.
type TerritoryRepository interface {
	Create(ctx context.Context, territory *domain.TerritoryRecord) error
	GetByID(ctx context.Context, id string) (*domain.TerritoryRecord, error)
	List(ctx context.Context) ([]domain.TerritoryRecord, error)
	// MissingIDs returns the ids in ids that have no territory row.
	MissingIDs(ctx context.Context, ids []string) ([]string, error)
	AddStaff(ctx context.Context, territoryID, staffID string) error
	RemoveStaff(ctx context.Context, territoryID, staffID string) error
	// SetAssignedStaff overwrites the reverse index; used by reconciliation.
	SetAssignedStaff(ctx context.Context, territoryID string, staffIDs []string) error
}

type territoryRepository struct {
	db DB
}

// NewTerritoryRepository constructs repository.
func NewTerritoryRepository(db DB) TerritoryRepository {
	return &territoryRepository{db: db}
}

const territoryColumns = `id, name, assigned_staff_ids, assigned_team_ids, created_at, updated_at`

func (r *territoryRepository) Create(ctx context.Context, territory *domain.TerritoryRecord) error {
	const query = `
        INSERT INTO territories (id, name, assigned_staff_ids, assigned_team_ids)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		territory.ID,
		territory.Name,
		nonNil(territory.AssignedStaffIDs),
		nonNil(territory.AssignedTeamIDs),
	).Scan(&territory.CreatedAt, &territory.UpdatedAt)
	return eris.Wrap(err, "territory: insert")
}

func (r *territoryRepository) GetByID(ctx context.Context, id string) (*domain.TerritoryRecord, error) {
	query := `SELECT ` + territoryColumns + ` FROM territories WHERE id=$1`
	territory, err := scanTerritory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "territory: get %s", id)
	}
	return territory, nil
}

func (r *territoryRepository) List(ctx context.Context) ([]domain.TerritoryRecord, error) {
	query := `SELECT ` + territoryColumns + ` FROM territories ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "territory: list")
	}
	defer rows.Close()

	result := []domain.TerritoryRecord{}
	for rows.Next() {
		territory, err := scanTerritory(rows)
		if err != nil {
			return nil, eris.Wrap(err, "territory: scan")
		}
		result = append(result, *territory)
	}
	return result, eris.Wrap(rows.Err(), "territory: list")
}

func (r *territoryRepository) MissingIDs(ctx context.Context, ids []string) ([]string, error) {
	const query = `
        SELECT requested.id FROM unnest($1::text[]) AS requested(id)
        LEFT JOIN territories t ON t.id = requested.id
        WHERE t.id IS NULL`
	rows, err := r.db.Query(ctx, query, nonNil(ids))
	if err != nil {
		return nil, eris.Wrap(err, "territory: missing ids")
	}
	defer rows.Close()

	missing := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "territory: scan missing id")
		}
		missing = append(missing, id)
	}
	return missing, eris.Wrap(rows.Err(), "territory: missing ids")
}

func (r *territoryRepository) AddStaff(ctx context.Context, territoryID, staffID string) error {
	const query = `
        UPDATE territories SET assigned_staff_ids=array_append(assigned_staff_ids, $2), updated_at=NOW()
        WHERE id=$1 AND NOT ($2 = ANY(assigned_staff_ids))`
	_, err := r.db.Exec(ctx, query, territoryID, staffID)
	return eris.Wrapf(err, "territory: add staff to %s", territoryID)
}

func (r *territoryRepository) RemoveStaff(ctx context.Context, territoryID, staffID string) error {
	const query = `
        UPDATE territories SET assigned_staff_ids=array_remove(assigned_staff_ids, $2), updated_at=NOW()
        WHERE id=$1`
	_, err := r.db.Exec(ctx, query, territoryID, staffID)
	return eris.Wrapf(err, "territory: remove staff from %s", territoryID)
}

func (r *territoryRepository) SetAssignedStaff(ctx context.Context, territoryID string, staffIDs []string) error {
	const query = `
        UPDATE territories SET assigned_staff_ids=$2, updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.db.Exec(ctx, query, territoryID, nonNil(staffIDs))
	if err != nil {
		return eris.Wrapf(err, "territory: set staff on %s", territoryID)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTerritory(row rowScanner) (*domain.TerritoryRecord, error) {
	var territory domain.TerritoryRecord
	if err := row.Scan(
		&territory.ID,
		&territory.Name,
		&territory.AssignedStaffIDs,
		&territory.AssignedTeamIDs,
		&territory.CreatedAt,
		&territory.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &territory, nil
}
