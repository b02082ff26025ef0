package http

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/repository"
)

// memStore backs the staff, team and territory repositories in memory.
type memStore struct {
	mu          sync.Mutex
	staff       map[string]domain.StaffRecord
	order       []string
	teams       map[string]domain.TeamRecord
	territories map[string]domain.TerritoryRecord
}

func newMemStore() *memStore {
	return &memStore{
		staff:       map[string]domain.StaffRecord{},
		teams:       map[string]domain.TeamRecord{},
		territories: map[string]domain.TerritoryRecord{},
	}
}

func copyStaff(s domain.StaffRecord) domain.StaffRecord {
	s.Territories = append([]string(nil), s.Territories...)
	s.TeamIDs = append([]string(nil), s.TeamIDs...)
	s.Licenses = append([]domain.License(nil), s.Licenses...)
	s.AppliedEventIDs = append([]string(nil), s.AppliedEventIDs...)
	return s
}

type memStaffRepo struct{ *memStore }

func (r memStaffRepo) Create(_ context.Context, staff *domain.StaffRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff.Revision = 1
	r.staff[staff.ID] = copyStaff(*staff)
	r.order = append(r.order, staff.ID)
	return nil
}

func (r memStaffRepo) Update(_ context.Context, staff *domain.StaffRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.staff[staff.ID]
	if !ok || stored.Revision != staff.Revision {
		return repository.ErrRevisionConflict
	}
	staff.Revision++
	r.staff[staff.ID] = copyStaff(*staff)
	return nil
}

func (r memStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.staff[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s = copyStaff(s)
	return &s, nil
}

func (r memStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.staff {
		if s.Email == email {
			s = copyStaff(s)
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memStaffRepo) List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffRecord, error) {
	all, _ := r.Roster(ctx)
	out := []domain.StaffRecord{}
	for _, s := range all {
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.Role != nil && s.Role != *filter.Role {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r memStaffRepo) Roster(_ context.Context) ([]domain.StaffRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StaffRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, copyStaff(r.staff[id]))
	}
	return out, nil
}

type memTeamRepo struct{ *memStore }

func (r memTeamRepo) Create(_ context.Context, team *domain.TeamRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams[team.ID] = *team
	return nil
}

func (r memTeamRepo) GetByID(_ context.Context, id string) (*domain.TeamRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.MemberIDs = append([]string(nil), t.MemberIDs...)
	return &t, nil
}

func (r memTeamRepo) List(_ context.Context) ([]domain.TeamRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TeamRecord{}
	for _, t := range r.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTeamRepo) AddMember(_ context.Context, teamID, staffID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[teamID]
	if !ok || t.HasMember(staffID) {
		return false, nil
	}
	t.MemberIDs = append(append([]string(nil), t.MemberIDs...), staffID)
	r.teams[teamID] = t
	return true, nil
}

func (r memTeamRepo) RemoveMember(_ context.Context, teamID, staffID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[teamID]
	if !ok || t.LeaderID == staffID || !t.HasMember(staffID) {
		return false, nil
	}
	kept := []string{}
	for _, id := range t.MemberIDs {
		if id != staffID {
			kept = append(kept, id)
		}
	}
	t.MemberIDs = kept
	r.teams[teamID] = t
	return true, nil
}

type memTerritoryRepo struct{ *memStore }

func (r memTerritoryRepo) Create(_ context.Context, territory *domain.TerritoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.territories[territory.ID] = *territory
	return nil
}

func (r memTerritoryRepo) GetByID(_ context.Context, id string) (*domain.TerritoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.territories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r memTerritoryRepo) List(_ context.Context) ([]domain.TerritoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TerritoryRecord{}
	for _, t := range r.territories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTerritoryRepo) MissingIDs(_ context.Context, ids []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	missing := []string{}
	for _, id := range ids {
		if _, ok := r.territories[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r memTerritoryRepo) AddStaff(_ context.Context, territoryID, staffID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.territories[territoryID]
	if !t.HasStaff(staffID) {
		t.AssignedStaffIDs = append(append([]string(nil), t.AssignedStaffIDs...), staffID)
	}
	r.territories[territoryID] = t
	return nil
}

func (r memTerritoryRepo) RemoveStaff(_ context.Context, territoryID, staffID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.territories[territoryID]
	kept := []string{}
	for _, id := range t.AssignedStaffIDs {
		if id != staffID {
			kept = append(kept, id)
		}
	}
	t.AssignedStaffIDs = kept
	r.territories[territoryID] = t
	return nil
}

func (r memTerritoryRepo) SetAssignedStaff(_ context.Context, territoryID string, staffIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.territories[territoryID]
	if !ok {
		return repository.ErrNotFound
	}
	t.AssignedStaffIDs = append([]string{}, staffIDs...)
	r.territories[territoryID] = t
	return nil
}
