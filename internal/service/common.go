package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/repository"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

// Locker serializes work per key. persistence.RedisLocker and
// persistence.LocalLocker implement it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// errSkipWrite tells updateStaff the mutation found nothing to change.
var errSkipWrite = errors.New("skip write")

// staffUpdater re-reads, mutates and conditionally writes a staff record,
// retrying when another writer got there first.
type staffUpdater struct {
	repo     repository.StaffRepository
	attempts int
	logger   *zap.Logger
}

func (u staffUpdater) update(ctx context.Context, staffID string, mutate func(*domain.StaffRecord) error) (*domain.StaffRecord, error) {
	attempts := u.attempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		staff, err := u.repo.GetByID(ctx, staffID)
		if err != nil {
			return nil, staffLookupError(err, staffID)
		}
		if err := mutate(staff); err != nil {
			if errors.Is(err, errSkipWrite) {
				return staff, nil
			}
			return nil, err
		}
		err = u.repo.Update(ctx, staff)
		if err == nil {
			return staff, nil
		}
		if !errors.Is(err, repository.ErrRevisionConflict) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		u.logger.Debug("staff revision conflict; retrying",
			zap.String("staff_id", staffID),
			zap.Int("attempt", attempt))
	}
	return nil, apperrors.NewConflict("staff record changed concurrently; retries exhausted", map[string]any{
		"staff_id": staffID,
		"attempts": attempts,
	})
}

func staffLookupError(err error, staffID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
	}
	return err
}

func removeString(values []string, target string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

func appendUnique(values []string, items ...string) []string {
	seen := make(map[string]struct{}, len(values)+len(items))
	out := make([]string, 0, len(values)+len(items))
	for _, v := range append(append([]string{}, values...), items...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func isNotFound(err error) bool {
	return apperrors.IsCode(err, apperrors.CodeNotFound)
}
