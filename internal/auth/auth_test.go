package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/repository"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

type stubLookup map[string]*domain.StaffRecord

func (s stubLookup) GetByID(_ context.Context, id string) (*domain.StaffRecord, error) {
	if staff, ok := s[id]; ok {
		return staff, nil
	}
	return nil, repository.ErrNotFound
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	token, exp, err := tm.GenerateToken("s-1", domain.StaffRoleBroker)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s-1", claims.StaffID)
	assert.Equal(t, domain.StaffRoleBroker, claims.Role)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 15).GenerateToken("s-1", domain.StaffRoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenManager("two", 15).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken("s-1", domain.StaffRoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", 1).ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, PasswordMatches(hash, "correct horse"))
	assert.False(t, PasswordMatches(hash, "wrong"))
	assert.False(t, PasswordMatches("", ""))

	assert.False(t, NeedsRehash(hash, bcrypt.MinCost))
	assert.True(t, NeedsRehash(hash, bcrypt.MinCost+1))
	assert.False(t, NeedsRehash("not-a-hash", bcrypt.MinCost))

	_, err = HashPassword(strings.Repeat("x", MaxPasswordBytes+1), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestCanSignIn(t *testing.T) {
	allowed := map[domain.StaffStatus]bool{
		domain.StaffStatusActive:     true,
		domain.StaffStatusOnLeave:    true,
		domain.StaffStatusInactive:   false,
		domain.StaffStatusSuspended:  false,
		domain.StaffStatusTerminated: false,
	}
	for status, want := range allowed {
		assert.Equal(t, want, CanSignIn(status), status)
	}
}

// newGuardedApp mounts the middleware chain in front of a handler that echoes
// the principal, with a minimal error envelope.
func newGuardedApp(tm *TokenManager, staff stubLookup, roles ...domain.StaffRole) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(fiber.Map{"code": fe.Message})
		}
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
	}})
	app.Get("/me", NewAuthMiddleware(tm, staff).Handle, RequireStaffRole(roles...), func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"id": principal.Staff.ID, "role": principal.Role})
	})
	return app
}

func call(t *testing.T, app *fiber.App, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	staff := stubLookup{
		"admin-1":  {ID: "admin-1", Role: domain.StaffRoleAdmin, Status: domain.StaffStatusActive},
		"broker-1": {ID: "broker-1", Role: domain.StaffRoleBroker, Status: domain.StaffStatusActive},
		"gone-1":   {ID: "gone-1", Role: domain.StaffRoleAdmin, Status: domain.StaffStatusTerminated},
	}
	tokenFor := func(id string, role domain.StaffRole) string {
		token, _, err := tm.GenerateToken(id, role)
		require.NoError(t, err)
		return token
	}
	app := newGuardedApp(tm, staff, domain.StaffRoleAdmin)

	status, body := call(t, app, tokenFor("admin-1", domain.StaffRoleAdmin))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin-1", body["id"])

	status, body = call(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthorized, body["code"])

	status, _ = call(t, app, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, tokenFor("missing", domain.StaffRoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, tokenFor("gone-1", domain.StaffRoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRequireStaffRoleUsesStoredRole(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	// The token still claims admin but the record was demoted.
	staff := stubLookup{"s-1": {ID: "s-1", Role: domain.StaffRoleBroker, Status: domain.StaffStatusActive}}
	token, _, err := tm.GenerateToken("s-1", domain.StaffRoleAdmin)
	require.NoError(t, err)

	status, body := call(t, newGuardedApp(tm, staff, domain.StaffRoleAdmin), token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "insufficient role", body["code"])

	status, _ = call(t, newGuardedApp(tm, staff), token)
	assert.Equal(t, http.StatusOK, status)
}
