package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workforce-service/internal/domain"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

func newTeamFixture() (*TeamService, *fakeStaffRepo, *fakeTeamRepo) {
	lead := activeStaff("lead")
	member := activeStaff("member")
	member.TeamIDs = []string{"team-1", "team-2"}
	loner := activeStaff("loner")
	outsider := activeStaff("outsider")
	outsider.TeamIDs = []string{"team-2"}
	staff := newFakeStaffRepo(lead, member, loner, outsider)
	teams := newFakeTeamRepo(domain.TeamRecord{
		ID: "team-1", Name: "Motor", Type: domain.TeamTypeSales, LeaderID: "lead",
		MemberIDs: []string{"lead", "member", "loner"},
	})
	svc := NewTeamService(testConfig(), TeamDependencies{
		StaffRepo:     staff,
		TeamRepo:      teams,
		TerritoryRepo: newFakeTerritoryRepo("dubai"),
	})
	return svc, staff, teams
}

func TestCreateTeam_LeaderBecomesMember(t *testing.T) {
	svc, staff, _ := newTeamFixture()

	team, err := svc.CreateTeam(context.Background(), CreateTeamInput{
		Name:        "Life",
		Type:        domain.TeamTypeService,
		LeaderID:    "loner",
		MemberIDs:   []string{"outsider"},
		Territories: []string{"dubai"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"loner", "outsider"}, team.MemberIDs)
	assert.Contains(t, staff.get("loner").TeamIDs, team.ID)
	assert.Contains(t, staff.get("outsider").TeamIDs, team.ID)
}

func TestCreateTeam_RollsBackStaffOnFailure(t *testing.T) {
	t.Run("team insert fails", func(t *testing.T) {
		svc, staff, teams := newTeamFixture()
		teams.createErr = errors.New("connection reset")

		_, err := svc.CreateTeam(context.Background(), CreateTeamInput{
			Name: "Life", Type: domain.TeamTypeService, LeaderID: "loner", MemberIDs: []string{"outsider"},
		})
		require.Error(t, err)
		assert.Equal(t, []string{"team-1"}, staff.get("loner").TeamIDs)
		assert.Equal(t, []string{"team-2"}, staff.get("outsider").TeamIDs)
	})

	t.Run("member write fails", func(t *testing.T) {
		svc, staff, teams := newTeamFixture()
		staff.failOnce = map[string]error{"outsider": errors.New("connection reset")}

		_, err := svc.CreateTeam(context.Background(), CreateTeamInput{
			Name: "Life", Type: domain.TeamTypeService, LeaderID: "loner", MemberIDs: []string{"outsider"},
		})
		require.Error(t, err)
		assert.Equal(t, []string{"team-1"}, staff.get("loner").TeamIDs)
		list, _ := teams.List(context.Background())
		assert.Len(t, list, 1)
	})
}

func TestCreateTeam_Validation(t *testing.T) {
	svc, _, _ := newTeamFixture()

	_, err := svc.CreateTeam(context.Background(), CreateTeamInput{Name: "", Type: "pirates"})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "name")
	assert.Contains(t, de.Details, "type")
	assert.Contains(t, de.Details, "leaderId")

	_, err = svc.CreateTeam(context.Background(), CreateTeamInput{Name: "X", Type: domain.TeamTypeClaims, LeaderID: "ghost"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestAddMember(t *testing.T) {
	svc, staff, teams := newTeamFixture()

	team, err := svc.AddMember(context.Background(), "team-1", "outsider")
	require.NoError(t, err)
	assert.Contains(t, team.MemberIDs, "outsider")
	assert.Contains(t, staff.get("outsider").TeamIDs, "team-1")
	stored, _ := teams.GetByID(context.Background(), "team-1")
	assert.True(t, stored.HasMember("outsider"))

	_, err = svc.AddMember(context.Background(), "team-1", "outsider")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestRemoveMember_Guards(t *testing.T) {
	svc, staff, _ := newTeamFixture()
	ctx := context.Background()

	_, err := svc.RemoveMember(ctx, "team-1", "lead")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict), "leader")

	_, err = svc.RemoveMember(ctx, "team-1", "loner")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict), "last team")
	assert.Equal(t, []string{"team-1"}, staff.get("loner").TeamIDs)

	_, err = svc.RemoveMember(ctx, "team-1", "outsider")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "not a member")

	_, err = svc.RemoveMember(ctx, "nope", "member")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "unknown team")
}

func TestRemoveMember(t *testing.T) {
	svc, staff, teams := newTeamFixture()

	team, err := svc.RemoveMember(context.Background(), "team-1", "member")
	require.NoError(t, err)
	assert.NotContains(t, team.MemberIDs, "member")
	assert.Equal(t, []string{"team-2"}, staff.get("member").TeamIDs)
	stored, _ := teams.GetByID(context.Background(), "team-1")
	assert.False(t, stored.HasMember("member"))
}
