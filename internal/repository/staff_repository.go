package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/spec-kit/workforce-service/internal/domain"
)

// StaffRepository handles persistence for staff records.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffRecord) error
	// Update writes staff only if its stored revision still equals
	// staff.Revision. On success staff.Revision is advanced.
	Update(ctx context.Context, staff *domain.StaffRecord) error
	GetByID(ctx context.Context, id string) (*domain.StaffRecord, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffRecord, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffRecord, error)
	// Roster returns every staff record in hire order.
	Roster(ctx context.Context) ([]domain.StaffRecord, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Status    *domain.StaffStatus
	Role      *domain.StaffRole
	Territory *string
	TeamID    *string
	Limit     int
	Offset    int
}

type staffRepository struct {
	db DB
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(db DB) StaffRepository {
	return &staffRepository{db: db}
}

const staffColumns = `id, display_name, email, password_hash, role, status, availability, status_changed_at,
        territories, team_ids, workload, performance, licenses, applied_event_ids, revision, created_at, updated_at`

type staffDocuments struct {
	availability []byte
	workload     []byte
	performance  []byte
	licenses     []byte
}

func encodeStaffDocuments(staff *domain.StaffRecord) (staffDocuments, error) {
	var (
		docs staffDocuments
		err  error
	)
	if docs.availability, err = json.Marshal(staff.Availability); err != nil {
		return docs, eris.Wrap(err, "staff: marshal availability")
	}
	if docs.workload, err = json.Marshal(staff.Workload); err != nil {
		return docs, eris.Wrap(err, "staff: marshal workload")
	}
	if docs.performance, err = json.Marshal(staff.Performance); err != nil {
		return docs, eris.Wrap(err, "staff: marshal performance")
	}
	licenses := staff.Licenses
	if licenses == nil {
		licenses = []domain.License{}
	}
	if docs.licenses, err = json.Marshal(licenses); err != nil {
		return docs, eris.Wrap(err, "staff: marshal licenses")
	}
	return docs, nil
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffRecord) error {
	const query = `
        INSERT INTO staff_members (id, display_name, email, password_hash, role, status, availability, status_changed_at,
            territories, team_ids, workload, performance, licenses, applied_event_ids, revision)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,1)
        RETURNING revision, created_at, updated_at`

	docs, err := encodeStaffDocuments(staff)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, query,
		staff.ID,
		staff.DisplayName,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.Status,
		docs.availability,
		staff.StatusChangedAt,
		nonNil(staff.Territories),
		nonNil(staff.TeamIDs),
		docs.workload,
		docs.performance,
		docs.licenses,
		nonNil(staff.AppliedEventIDs),
	).Scan(&staff.Revision, &staff.CreatedAt, &staff.UpdatedAt)
	return eris.Wrap(err, "staff: insert")
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffRecord) error {
	const query = `
        UPDATE staff_members
        SET display_name=$1, email=$2, password_hash=$3, role=$4, status=$5, availability=$6, status_changed_at=$7,
            territories=$8, team_ids=$9, workload=$10, performance=$11, licenses=$12, applied_event_ids=$13,
            revision=revision+1, updated_at=NOW()
        WHERE id=$14 AND revision=$15
        RETURNING revision, updated_at`

	docs, err := encodeStaffDocuments(staff)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, query,
		staff.DisplayName,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.Status,
		docs.availability,
		staff.StatusChangedAt,
		nonNil(staff.Territories),
		nonNil(staff.TeamIDs),
		docs.workload,
		docs.performance,
		docs.licenses,
		nonNil(staff.AppliedEventIDs),
		staff.ID,
		staff.Revision,
	).Scan(&staff.Revision, &staff.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// staff records are never deleted, so a miss means the revision moved
		return ErrRevisionConflict
	}
	return eris.Wrapf(err, "staff: update %s", staff.ID)
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffRecord, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE id=$1`
	staff, err := scanStaff(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "staff: get %s", id)
	}
	return staff, nil
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffRecord, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE email=$1`
	staff, err := scanStaff(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "staff: get by email")
	}
	return staff, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffRecord, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members`
	args := []any{}
	clauses := []string{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Territory != nil {
		args = append(args, *filter.Territory)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(territories)", len(args)))
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(team_ids)", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at DESC, id"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	return r.queryStaff(ctx, "staff: list", query, args...)
}

func (r *staffRepository) Roster(ctx context.Context) ([]domain.StaffRecord, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members ORDER BY created_at, id`
	return r.queryStaff(ctx, "staff: roster", query)
}

func (r *staffRepository) queryStaff(ctx context.Context, op, query string, args ...any) ([]domain.StaffRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, op)
	}
	defer rows.Close()

	result := []domain.StaffRecord{}
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, eris.Wrap(err, op)
		}
		result = append(result, *staff)
	}
	return result, eris.Wrap(rows.Err(), op)
}

func scanStaff(row rowScanner) (*domain.StaffRecord, error) {
	var (
		staff domain.StaffRecord
		docs  staffDocuments
	)
	if err := row.Scan(
		&staff.ID,
		&staff.DisplayName,
		&staff.Email,
		&staff.PasswordHash,
		&staff.Role,
		&staff.Status,
		&docs.availability,
		&staff.StatusChangedAt,
		&staff.Territories,
		&staff.TeamIDs,
		&docs.workload,
		&docs.performance,
		&docs.licenses,
		&staff.AppliedEventIDs,
		&staff.Revision,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalDocument(docs.availability, &staff.Availability); err != nil {
		return nil, eris.Wrap(err, "staff: unmarshal availability")
	}
	if err := unmarshalDocument(docs.workload, &staff.Workload); err != nil {
		return nil, eris.Wrap(err, "staff: unmarshal workload")
	}
	if err := unmarshalDocument(docs.performance, &staff.Performance); err != nil {
		return nil, eris.Wrap(err, "staff: unmarshal performance")
	}
	if err := unmarshalDocument(docs.licenses, &staff.Licenses); err != nil {
		return nil, eris.Wrap(err, "staff: unmarshal licenses")
	}
	return &staff, nil
}

func unmarshalDocument(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
