package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/events"
	"github.com/spec-kit/workforce-service/internal/repository"
	"github.com/spec-kit/workforce-service/internal/workforce"
)

const sweepConcurrency = 4

// AlertDeduper remembers which alerts were already sent.
// persistence.AlertDeduper implements it on redis.
type AlertDeduper interface {
	MarkIfNew(ctx context.Context, key string) (bool, error)
}

// LicenseService scans staff licenses and raises expiry alerts.
type LicenseService struct {
	staff      repository.StaffRepository
	updater    staffUpdater
	deduper    AlertDeduper
	dispatcher events.Dispatcher
	thresholds []int
	logger     *zap.Logger
	now        Clock
}

// LicenseDependencies bundles collaborators.
type LicenseDependencies struct {
	StaffRepo  repository.StaffRepository
	Deduper    AlertDeduper
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// NewLicenseService creates the service.
func NewLicenseService(cfg config.WorkforceConfig, deps LicenseDependencies) *LicenseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	thresholds := append([]int(nil), cfg.LicenseAlertThresholdDays...)
	sort.Ints(thresholds)
	return &LicenseService{
		staff:      deps.StaffRepo,
		updater:    staffUpdater{repo: deps.StaffRepo, attempts: cfg.OptimisticRetryAttempts, logger: logger},
		deduper:    deps.Deduper,
		dispatcher: deps.Dispatcher,
		thresholds: thresholds,
		logger:     logger,
		now:        now,
	}
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Scanned         int `json:"scanned"`
	Emitted         int `json:"emitted"`
	Deduplicated    int `json:"deduplicated"`
	StatusRefreshed int `json:"statusRefreshed"`
}

// Sweep checks every license of every non-terminated staff member. A license
// inside a threshold, or already expired, raises one alert per threshold
// bucket; repeats within the dedup window are suppressed. Stored license
// statuses that no longer match the date are refreshed.
func (s *LicenseService) Sweep(ctx context.Context) (SweepReport, error) {
	roster, err := s.staff.Roster(ctx)
	if err != nil {
		return SweepReport{}, err
	}
	now := s.now()

	var (
		mu     sync.Mutex
		report SweepReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for i := range roster {
		staff := roster[i]
		if staff.Status.IsTerminal() {
			continue
		}
		g.Go(func() error {
			r, err := s.sweepStaff(gctx, staff, now)
			mu.Lock()
			report.Scanned += r.Scanned
			report.Emitted += r.Emitted
			report.Deduplicated += r.Deduplicated
			report.StatusRefreshed += r.StatusRefreshed
			mu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	s.logger.Info("license sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("emitted", report.Emitted),
		zap.Int("deduplicated", report.Deduplicated),
		zap.Int("status_refreshed", report.StatusRefreshed))
	return report, nil
}

func (s *LicenseService) sweepStaff(ctx context.Context, staff domain.StaffRecord, now time.Time) (SweepReport, error) {
	var report SweepReport
	stale := false
	for _, license := range staff.Licenses {
		if license.Status == domain.LicenseStatusRevoked {
			continue
		}
		report.Scanned++
		if workforce.DeriveLicenseStatus(license, now, s.widestThreshold()) != license.Status {
			stale = true
		}

		days := workforce.DaysUntilExpiry(license, now)
		threshold, eventType, ok := s.bucket(days)
		if !ok {
			continue
		}
		emit, err := s.firstAlert(ctx, alertKey(staff.ID, license, eventType, threshold))
		if err != nil {
			return report, err
		}
		if !emit {
			report.Deduplicated++
			continue
		}
		s.publish(ctx, eventType, staff, license, days, threshold, now)
		report.Emitted++
	}

	if stale {
		if err := s.refreshStatuses(ctx, staff.ID, now); err != nil {
			return report, err
		}
		report.StatusRefreshed++
	}
	return report, nil
}

// bucket picks the smallest threshold that still covers days. Expired
// licenses share one bucket regardless of how long ago they lapsed.
func (s *LicenseService) bucket(days int) (int, events.EventType, bool) {
	if days < 0 {
		return 0, events.EventStaffLicenseExpired, true
	}
	for _, t := range s.thresholds {
		if days <= t {
			return t, events.EventStaffLicenseExpiring, true
		}
	}
	return 0, "", false
}

func (s *LicenseService) widestThreshold() int {
	if len(s.thresholds) == 0 {
		return 0
	}
	return s.thresholds[len(s.thresholds)-1]
}

// firstAlert reports whether key has not been alerted yet. When the dedup
// store fails the alert is sent anyway.
func (s *LicenseService) firstAlert(ctx context.Context, key string) (bool, error) {
	if s.deduper == nil {
		return true, nil
	}
	fresh, err := s.deduper.MarkIfNew(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.logger.Warn("license alert dedup unavailable; sending anyway", zap.String("key", key), zap.Error(err))
		return true, nil
	}
	return fresh, nil
}

func (s *LicenseService) publish(ctx context.Context, eventType events.EventType, staff domain.StaffRecord, license domain.License, days, threshold int, now time.Time) {
	s.logger.Info("license alert",
		zap.String("event_type", string(eventType)),
		zap.String("staff_id", staff.ID),
		zap.String("license_number", license.Number),
		zap.Int("days_until_expiry", days))
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: now,
		Payload: events.LicenseAlertPayload{
			StaffID:         staff.ID,
			DisplayName:     staff.DisplayName,
			Email:           staff.Email,
			LicenseType:     license.Type,
			LicenseNumber:   license.Number,
			ExpiryDate:      license.ExpiryDate,
			DaysUntilExpiry: days,
			ThresholdDays:   threshold,
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("license alert delivery failed", zap.String("staff_id", staff.ID), zap.Error(err))
	}
}

func (s *LicenseService) refreshStatuses(ctx context.Context, staffID string, now time.Time) error {
	_, err := s.updater.update(ctx, staffID, func(staff *domain.StaffRecord) error {
		changed := false
		for i := range staff.Licenses {
			l := &staff.Licenses[i]
			if l.Status == domain.LicenseStatusRevoked {
				continue
			}
			if next := workforce.DeriveLicenseStatus(*l, now, s.widestThreshold()); next != l.Status {
				l.Status = next
				changed = true
			}
		}
		if !changed {
			return errSkipWrite
		}
		return nil
	})
	if isNotFound(err) {
		return nil
	}
	return err
}

func alertKey(staffID string, license domain.License, eventType events.EventType, threshold int) string {
	if eventType == events.EventStaffLicenseExpired {
		return fmt.Sprintf("%s:%s:expired", staffID, license.Number)
	}
	return fmt.Sprintf("%s:%s:%d", staffID, license.Number, threshold)
}
