package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// LicenseExpirer lists licenses ending within a number of days.
type LicenseExpirer interface {
	Expiring(ctx context.Context, withinDays int) ([]model.ExpiringLicense, error)
}

// LicenseWatch logs a warning for every license that ends within Days
// days, so operators can renew before screenings lose their rights.
type LicenseWatch struct {
	Licenses LicenseExpirer
	Days     int
	Timeout  time.Duration
	Log      logrus.FieldLogger
}

// Run implements cron.Job.
func (w *LicenseWatch) Run() {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	w.check(ctx)
}

func (w *LicenseWatch) check(ctx context.Context) int {
	list, err := w.Licenses.Expiring(ctx, w.Days)
	if err != nil {
		w.Log.WithError(err).Error("license watch failed")
		return 0
	}
	for _, l := range list {
		w.Log.WithFields(logrus.Fields{
			"license_id": l.ID,
			"film_title": l.FilmTitle,
			"end_date":   l.EndDate.Format(time.DateOnly),
			"days_left":  l.DaysLeft,
		}).Warn("license expiring")
	}
	w.Log.WithField("count", len(list)).Info("license watch done")
	return len(list)
}
