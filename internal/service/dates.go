package service

import (
	"strings"
	"time"
)

// dateTimeLayouts are tried in order.  Layouts without a time of day
// resolve to midnight.
var dateTimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
	time.RFC3339,
}

// ParseDateTime parses an operator supplied date or date-time in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("invalid date/time %q: use YYYY-MM-DD HH:MM or YYYY-MM-DD", s)
}

// ParseDay parses s and returns the calendar day containing it as the
// half-open range [start, end) in loc.
func ParseDay(s string, loc *time.Location) (start, end time.Time, err error) {
	t, err := ParseDateTime(s, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = startOfDay(t.In(loc))
	return start, start.AddDate(0, 0, 1), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
