package service

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/jonboulle/clockwork"
)

// LicenseService reports on screening licenses.
type LicenseService struct {
	licenses LicenseStore
	clock    clockwork.Clock
	loc      *time.Location
}

func NewLicenseService(d Deps) *LicenseService {
	if d.Licenses == nil {
		panic("service: NewLicenseService requires Licenses")
	}
	d = d.withDefaults()
	return &LicenseService{licenses: d.Licenses, clock: d.Clock, loc: d.Location}
}

// Expiring returns licenses whose end date falls within the next
// withinDays days, today included, soonest first.
func (s *LicenseService) Expiring(ctx context.Context, withinDays int) ([]model.ExpiringLicense, error) {
	if withinDays < 0 || withinDays > maxReportDays {
		return nil, invalid("days must be between 0 and %d, got %d", maxReportDays, withinDays)
	}
	today := civilDate(s.clock.Now().In(s.loc))
	until := today.AddDate(0, 0, withinDays)
	list, err := s.licenses.ListEndingBetween(ctx, today, until)
	if err != nil {
		return nil, storage("list expiring licenses", err)
	}
	out := make([]model.ExpiringLicense, 0, len(list))
	for _, l := range list {
		left := int(civilDate(l.EndDate).Sub(today).Hours() / 24)
		out = append(out, model.ExpiringLicense{License: l, DaysLeft: left})
	}
	return out, nil
}

// civilDate drops the time of day and zone, keeping the calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
