package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/events"
	"github.com/spec-kit/workforce-service/internal/repository"
)

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testConfig() config.WorkforceConfig {
	return config.DefaultWorkforceConfig()
}

func intPtr(v int) *int { return &v }

// fakeStaffRepo is an in-memory StaffRepository with revision checks.
type fakeStaffRepo struct {
	mu      sync.Mutex
	records map[string]domain.StaffRecord
	order   []string
	// conflicts makes the next n Update calls fail with ErrRevisionConflict.
	conflicts int
	updates   int
	updateErr error
	// failOnce fails the next Update of each listed staff id.
	failOnce map[string]error
}

func newFakeStaffRepo(records ...domain.StaffRecord) *fakeStaffRepo {
	r := &fakeStaffRepo{records: map[string]domain.StaffRecord{}}
	for _, rec := range records {
		if rec.Revision == 0 {
			rec.Revision = 1
		}
		r.records[rec.ID] = clone(rec)
		r.order = append(r.order, rec.ID)
	}
	return r
}

func clone(rec domain.StaffRecord) domain.StaffRecord {
	rec.Territories = append([]string(nil), rec.Territories...)
	rec.TeamIDs = append([]string(nil), rec.TeamIDs...)
	rec.Licenses = append([]domain.License(nil), rec.Licenses...)
	rec.AppliedEventIDs = append([]string(nil), rec.AppliedEventIDs...)
	return rec
}

func (r *fakeStaffRepo) Create(_ context.Context, staff *domain.StaffRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff.Revision = 1
	staff.CreatedAt = fixedNow
	staff.UpdatedAt = fixedNow
	r.records[staff.ID] = clone(*staff)
	r.order = append(r.order, staff.ID)
	return nil
}

func (r *fakeStaffRepo) Update(_ context.Context, staff *domain.StaffRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if err, ok := r.failOnce[staff.ID]; ok {
		delete(r.failOnce, staff.ID)
		return err
	}
	if r.conflicts > 0 {
		r.conflicts--
		stored := r.records[staff.ID]
		stored.Revision++
		r.records[staff.ID] = stored
		return repository.ErrRevisionConflict
	}
	stored, ok := r.records[staff.ID]
	if !ok || stored.Revision != staff.Revision {
		return repository.ErrRevisionConflict
	}
	staff.Revision++
	r.records[staff.ID] = clone(*staff)
	r.updates++
	return nil
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := clone(rec)
	return &c, nil
}

func (r *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Email == email {
			c := clone(rec)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeStaffRepo) List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffRecord, error) {
	all, _ := r.Roster(ctx)
	out := []domain.StaffRecord{}
	for _, rec := range all {
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		if filter.Territory != nil && !rec.HasTerritory(*filter.Territory) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeStaffRepo) Roster(_ context.Context) ([]domain.StaffRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StaffRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.records[id]))
	}
	return out, nil
}

func (r *fakeStaffRepo) get(id string) domain.StaffRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.records[id])
}

// fakeTeamRepo is an in-memory TeamRepository.
type fakeTeamRepo struct {
	mu        sync.Mutex
	teams     map[string]domain.TeamRecord
	createErr error
}

func newFakeTeamRepo(teams ...domain.TeamRecord) *fakeTeamRepo {
	r := &fakeTeamRepo{teams: map[string]domain.TeamRecord{}}
	for _, t := range teams {
		r.teams[t.ID] = t
	}
	return r
}

func (r *fakeTeamRepo) Create(_ context.Context, team *domain.TeamRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.teams[team.ID] = *team
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.TeamRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.MemberIDs = append([]string(nil), t.MemberIDs...)
	return &t, nil
}

func (r *fakeTeamRepo) List(_ context.Context) ([]domain.TeamRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TeamRecord{}
	for _, t := range r.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTeamRepo) AddMember(_ context.Context, teamID, staffID string) (bool, error) {
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

func (r *fakeTeamRepo) RemoveMember(_ context.Context, teamID, staffID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[teamID]
	if !ok || t.LeaderID == staffID || !t.HasMember(staffID) || len(t.MemberIDs) <= 1 {
		return false, nil
	}
	t.MemberIDs = removeString(t.MemberIDs, staffID)
	r.teams[teamID] = t
	return true, nil
}

// fakeTerritoryRepo is an in-memory TerritoryRepository.
type fakeTerritoryRepo struct {
	mu          sync.Mutex
	territories map[string]domain.TerritoryRecord
	indexErr    error
}

func newFakeTerritoryRepo(ids ...string) *fakeTerritoryRepo {
	r := &fakeTerritoryRepo{territories: map[string]domain.TerritoryRecord{}}
	for _, id := range ids {
		r.territories[id] = domain.TerritoryRecord{ID: id, Name: id}
	}
	return r
}

func (r *fakeTerritoryRepo) Create(_ context.Context, territory *domain.TerritoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.territories[territory.ID] = *territory
	return nil
}

func (r *fakeTerritoryRepo) GetByID(_ context.Context, id string) (*domain.TerritoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.territories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *fakeTerritoryRepo) List(_ context.Context) ([]domain.TerritoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TerritoryRecord{}
	for _, t := range r.territories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTerritoryRepo) MissingIDs(_ context.Context, ids []string) ([]string, error) {
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

func (r *fakeTerritoryRepo) AddStaff(_ context.Context, territoryID, staffID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexErr != nil {
		return r.indexErr
	}
	t := r.territories[territoryID]
	if !t.HasStaff(staffID) {
		t.AssignedStaffIDs = append(append([]string(nil), t.AssignedStaffIDs...), staffID)
	}
	r.territories[territoryID] = t
	return nil
}

func (r *fakeTerritoryRepo) RemoveStaff(_ context.Context, territoryID, staffID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexErr != nil {
		return r.indexErr
	}
	t := r.territories[territoryID]
	t.AssignedStaffIDs = removeString(t.AssignedStaffIDs, staffID)
	r.territories[territoryID] = t
	return nil
}

func (r *fakeTerritoryRepo) SetAssignedStaff(_ context.Context, territoryID string, staffIDs []string) error {
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

func (r *fakeTerritoryRepo) staffOf(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.territories[id].AssignedStaffIDs...)
}

// fakeLocker hands out locks or fails every acquisition.
type fakeLocker struct {
	mu       sync.Mutex
	fail     bool
	acquired []string
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return nil, errors.New("lock held")
	}
	l.acquired = append(l.acquired, key)
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

// fakeDeduper remembers keys; err makes every call fail.
type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (d *fakeDeduper) MarkIfNew(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func newRecordingDispatcher(types ...events.EventType) (events.Dispatcher, *recorder) {
	d := events.NewInMemoryDispatcher(nil)
	rec := &recorder{}
	for _, t := range types {
		d.Subscribe(t, rec.handle)
	}
	return d, rec
}

func activeStaff(id string, territories ...string) domain.StaffRecord {
	return domain.StaffRecord{
		ID:           id,
		DisplayName:  "Staff " + id,
		Email:        id + "@example.com",
		Role:         domain.StaffRoleBroker,
		Status:       domain.StaffStatusActive,
		Availability: domain.Availability{IsAvailable: true},
		Territories:  territories,
		TeamIDs:      []string{"team-1"},
		Performance:  domain.Performance{Period: "2026-10"},
	}
}
