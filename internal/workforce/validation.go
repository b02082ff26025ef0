package workforce

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/spec-kit/workforce-service/internal/domain"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

const periodLayout = "2006-01"

var licenseNumberPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9/-]{3,31}$`)

// ValidateCriteria checks an assignment request and returns a normalized copy.
func ValidateCriteria(c domain.AssignmentCriteria) (domain.AssignmentCriteria, error) {
	c.Territory = strings.TrimSpace(c.Territory)
	c.Specialization = strings.TrimSpace(c.Specialization)
	c.CurrentOwnerID = strings.TrimSpace(c.CurrentOwnerID)
	c.PreferredTeamID = strings.TrimSpace(c.PreferredTeamID)

	details := map[string]any{}
	if !c.AssignmentType.Valid() {
		details["assignmentType"] = "must be one of lead, customer, policy"
	}
	if c.Territory == "" {
		details["territory"] = "is required"
	}
	if c.Urgency == "" {
		c.Urgency = domain.UrgencyNormal
	} else if !c.Urgency.Valid() {
		details["urgency"] = "must be one of normal, high, critical"
	}
	if len(details) > 0 {
		return c, apperrors.NewValidationError("invalid assignment criteria", details)
	}
	return c, nil
}

// ValidateLicense checks the shape of a license and returns it with a
// normalized number and a status derived from now. Revoked licenses keep
// their status.
func ValidateLicense(l domain.License, now time.Time) (domain.License, error) {
	l.Type = strings.TrimSpace(l.Type)
	l.IssuingAuthority = strings.TrimSpace(l.IssuingAuthority)
	l.Number = strings.ToUpper(strings.TrimSpace(l.Number))

	details := map[string]any{}
	if l.Type == "" {
		details["type"] = "is required"
	}
	if l.IssuingAuthority == "" {
		details["issuingAuthority"] = "is required"
	}
	if !licenseNumberPattern.MatchString(l.Number) {
		details["number"] = "must be 4-32 characters of letters, digits, '/' or '-'"
	}
	if l.IssueDate.IsZero() || l.ExpiryDate.IsZero() {
		details["dates"] = "issueDate and expiryDate are required"
	} else if !l.IssueDate.Before(l.ExpiryDate) {
		details["dates"] = "issueDate must be before expiryDate"
	}
	if len(details) > 0 {
		return l, apperrors.NewValidationError("invalid license", details)
	}

	if l.Status != domain.LicenseStatusRevoked {
		l.Status = DeriveLicenseStatus(l, now, expiringWindowDays)
	}
	return l, nil
}

// expiringWindowDays marks a license as expiring once it is inside the widest
// alert threshold.
const expiringWindowDays = 30

// DeriveLicenseStatus classifies a license relative to now.
func DeriveLicenseStatus(l domain.License, now time.Time, expiringWithinDays int) domain.LicenseStatus {
	if l.Status == domain.LicenseStatusRevoked {
		return domain.LicenseStatusRevoked
	}
	days := DaysUntilExpiry(l, now)
	switch {
	case days < 0:
		return domain.LicenseStatusExpired
	case days <= expiringWithinDays:
		return domain.LicenseStatusExpiring
	default:
		return domain.LicenseStatusActive
	}
}

// DaysUntilExpiry counts whole calendar days from now to the expiry date.
// Zero means it expires today; negative means it has expired.
func DaysUntilExpiry(l domain.License, now time.Time) int {
	expiry := truncateDay(l.ExpiryDate)
	today := truncateDay(now)
	return int(math.Round(expiry.Sub(today).Hours() / 24))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CurrentPeriod is the performance period label for now, e.g. "2026-10".
func CurrentPeriod(now time.Time) string {
	return now.UTC().Format(periodLayout)
}
