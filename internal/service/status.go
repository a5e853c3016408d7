package service

import (
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ScreeningStatus is derived from the clock on every call and must not
// be stored: a screening silently becomes past once its start passes.
type ScreeningStatus int

const (
	StatusPast ScreeningStatus = iota
	StatusFuture
)

func (s ScreeningStatus) String() string {
	if s == StatusFuture {
		return "future"
	}
	return "past"
}

// Status returns StatusFuture while the screening starts after now.
func Status(s model.Screening, now time.Time) ScreeningStatus {
	if s.StartsAt.After(now) {
		return StatusFuture
	}
	return StatusPast
}
