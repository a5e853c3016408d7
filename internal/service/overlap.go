package service

import (
	"strings"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// Overlaps reports whether the interval [start, end) in hall intersects
// the occupied interval of any screening in existing.  Screenings in
// other halls are ignored.  Intervals touching at an endpoint do not
// overlap.
func Overlaps(hall string, start, end time.Time, existing []model.Screening) bool {
	_, ok := FirstOverlap(hall, start, end, existing)
	return ok
}

// FirstOverlap is Overlaps that also returns the first conflicting
// screening.
func FirstOverlap(hall string, start, end time.Time, existing []model.Screening) (model.Screening, bool) {
	for _, s := range existing {
		if !sameHall(s.Hall, hall) {
			continue
		}
		if start.Before(s.EndsAt()) && s.StartsAt.Before(end) {
			return s, true
		}
	}
	return model.Screening{}, false
}

// sameHall compares hall names the way the halls index collates them.
func sameHall(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
