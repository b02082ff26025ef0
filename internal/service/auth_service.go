package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/auth"
	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/repository"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

// AuthService coordinates staff login and password changes.
type AuthService struct {
	staff      repository.StaffRepository
	updater    staffUpdater
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	StaffRepo repository.StaffRepository
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		staff:      deps.StaffRepo,
		updater:    staffUpdater{repo: deps.StaffRepo, attempts: cfg.Workforce.OptimisticRetryAttempts, logger: logger},
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}
}

// LoginStaff authenticates staff and returns a role-bearing token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffRecord, string, time.Time, error) {
	staff, err := s.staff.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !auth.PasswordMatches(staff.PasswordHash, password) {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !auth.CanSignIn(staff.Status) {
		s.logger.Info("login refused for disabled staff", zap.String("staff_id", staff.ID), zap.String("status", string(staff.Status)))
		return nil, "", time.Time{}, apperrors.NewForbidden("staff account disabled")
	}
	token, exp, err := s.tokenMgr.GenerateToken(staff.ID, staff.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	if auth.NeedsRehash(staff.PasswordHash, s.bcryptCost) {
		s.rehash(ctx, staff.ID, password)
	}
	return staff, token, exp, nil
}

// rehash stores password under the configured bcrypt cost. Failure only
// means the old hash stays in place until the next login.
func (s *AuthService) rehash(ctx context.Context, staffID, password string) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err == nil {
		_, err = s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
			if !auth.PasswordMatches(staff.PasswordHash, password) {
				return errSkipWrite
			}
			staff.PasswordHash = hash
			return nil
		})
	}
	if err != nil {
		s.logger.Warn("password rehash failed", zap.String("staff_id", staffID), zap.Error(err))
		return
	}
	s.logger.Info("password rehashed", zap.String("staff_id", staffID))
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, staffID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 || len(newPassword) > auth.MaxPasswordBytes {
		return apperrors.NewValidationError("invalid password", map[string]any{"newPassword": "between 8 and 72 characters"})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	_, err = s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
		if !auth.PasswordMatches(staff.PasswordHash, currentPassword) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		staff.PasswordHash = hash
		return nil
	})
	return err
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
