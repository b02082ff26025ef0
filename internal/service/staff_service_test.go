package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/workforce"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

func testAppConfig() config.Config {
	return config.Config{
		Auth:      config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, BcryptCost: bcrypt.MinCost},
		Workforce: testConfig(),
	}
}

func newStaffService(staff *fakeStaffRepo, territories *fakeTerritoryRepo) *StaffService {
	return NewStaffService(testAppConfig(), StaffDependencies{StaffRepo: staff, TerritoryRepo: territories, Clock: fixedClock})
}

func motorLicense(expiry time.Time) domain.License {
	return domain.License{
		Type:             "Motor",
		Number:           "ia-2291",
		IssuingAuthority: "Insurance Authority",
		IssueDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:       expiry,
	}
}

func TestHire_CreatesActiveStaff(t *testing.T) {
	staff := newFakeStaffRepo()
	territories := newFakeTerritoryRepo("dubai")
	svc := newStaffService(staff, territories)

	hired, err := svc.Hire(context.Background(), HireInput{
		DisplayName: "Omar Haddad",
		Email:       " Omar@Example.com ",
		Password:    "s3cret-pass",
		Role:        domain.StaffRoleBroker,
		Territories: []string{"dubai"},
		Licenses:    []domain.License{motorLicense(fixedNow.AddDate(0, 0, 20))},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, hired.ID)
	assert.Equal(t, "omar@example.com", hired.Email)
	assert.Equal(t, domain.StaffStatusActive, hired.Status)
	assert.True(t, hired.Availability.IsAvailable)
	assert.Equal(t, domain.Workload{}, hired.Workload)
	assert.Equal(t, "2026-10", hired.Performance.Period)
	assert.Equal(t, int64(1), hired.Revision)
	require.Len(t, hired.Licenses, 1)
	assert.Equal(t, "IA-2291", hired.Licenses[0].Number)
	assert.Equal(t, domain.LicenseStatusExpiring, hired.Licenses[0].Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hired.PasswordHash), []byte("s3cret-pass")))
	assert.Equal(t, []string{hired.ID}, territories.staffOf("dubai"))
}

func TestHire_Rejections(t *testing.T) {
	existing := activeStaff("s-1")
	svc := newStaffService(newFakeStaffRepo(existing), newFakeTerritoryRepo("dubai"))
	ctx := context.Background()

	_, err := svc.Hire(ctx, HireInput{DisplayName: "Dup", Email: existing.Email, Role: domain.StaffRoleBroker})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict), "duplicate email")

	_, err = svc.Hire(ctx, HireInput{DisplayName: "X", Email: "x@example.com", Role: domain.StaffRoleBroker, Territories: []string{"mars"}})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "unknown territory")

	bad := motorLicense(fixedNow.AddDate(1, 0, 0))
	bad.Number = "!"
	_, err = svc.Hire(ctx, HireInput{
		DisplayName: "", Email: "nope", Role: "pilot",
		MaxLeads: intPtr(0), Licenses: []domain.License{bad},
	})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	for _, key := range []string{"displayName", "email", "role", "maxLeads", "licenses[0]"} {
		assert.Contains(t, de.Details, key)
	}
}

func TestHire_RejectsDisplayNameAddresses(t *testing.T) {
	svc := newStaffService(newFakeStaffRepo(), newFakeTerritoryRepo())

	for _, email := range []string{"Omar Haddad <omar@example.com>", "omar@", ""} {
		_, err := svc.Hire(context.Background(), HireInput{DisplayName: "Omar", Email: email, Role: domain.StaffRoleBroker})
		require.Error(t, err, email)
		assert.Contains(t, apperrors.ToDomainError(err).Details, "email", email)
	}
}

func TestGet_IncludesCapacity(t *testing.T) {
	s := activeStaff("s-1")
	s.Workload.ActiveLeads = 16
	svc := newStaffService(newFakeStaffRepo(s), newFakeTerritoryRepo())

	view, err := svc.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, 20, view.Capacity.Leads.Max)
	assert.Equal(t, workforce.BandWarning, view.Capacity.Leads.Band)
	assert.True(t, view.Capacity.Leads.CanAcceptNew)

	_, err = svc.Get(context.Background(), "ghost")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestUpdateWorkload(t *testing.T) {
	s := activeStaff("s-1")
	s.Workload.ActiveLeads = 9
	s.Performance = domain.Performance{Period: "2026-09", LeadsConverted: 4}
	repo := newFakeStaffRepo(s)
	svc := newStaffService(repo, newFakeTerritoryRepo())

	view, err := svc.UpdateWorkload(context.Background(), "s-1", WorkloadUpdate{
		ActiveLeads: intPtr(0),
		MaxLeads:    intPtr(30),
		ResetPeriod: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, view.Capacity.Leads.Max)
	stored := repo.get("s-1")
	assert.Equal(t, 0, stored.Workload.ActiveLeads)
	assert.Equal(t, domain.Performance{Period: "2026-10"}, stored.Performance)

	_, err = svc.UpdateWorkload(context.Background(), "s-1", WorkloadUpdate{ActiveCustomers: intPtr(-1)})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestUpdateLicenses(t *testing.T) {
	repo := newFakeStaffRepo(activeStaff("s-1"))
	svc := newStaffService(repo, newFakeTerritoryRepo())

	updated, err := svc.UpdateLicenses(context.Background(), "s-1", []domain.License{motorLicense(fixedNow.AddDate(0, 0, -1))})
	require.NoError(t, err)
	require.Len(t, updated.Licenses, 1)
	assert.Equal(t, domain.LicenseStatusExpired, updated.Licenses[0].Status)

	dup := motorLicense(fixedNow.AddDate(1, 0, 0))
	_, err = svc.UpdateLicenses(context.Background(), "s-1", []domain.License{dup, dup})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}
