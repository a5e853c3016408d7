package service

import (
	"testing"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/stretchr/testify/assert"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2030-06-02 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	existing := []model.Screening{
		{ID: 1, Hall: "A", StartsAt: at("18:00"), FilmDuration: 120},
		{ID: 2, Hall: "B", StartsAt: at("19:00"), FilmDuration: 90},
	}

	tests := []struct {
		name       string
		hall       string
		start, end time.Time
		want       bool
	}{
		{"starts inside existing", "A", at("19:00"), at("21:00"), true},
		{"starts exactly at end", "A", at("20:00"), at("22:00"), false},
		{"ends exactly at start", "A", at("16:00"), at("18:00"), false},
		{"contains existing", "A", at("17:00"), at("21:00"), true},
		{"identical start", "A", at("18:00"), at("18:30"), true},
		{"zero length inside", "A", at("19:00"), at("19:00"), true},
		{"other hall ignored", "C", at("19:00"), at("21:00"), false},
		{"hall name compared without case", "a", at("19:30"), at("20:30"), true},
		{"second hall", "B", at("20:00"), at("21:00"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.hall, tt.start, tt.end, existing))
		})
	}
}

func TestFirstOverlapReturnsConflict(t *testing.T) {
	existing := []model.Screening{
		{ID: 7, Hall: "A", StartsAt: at("10:00"), FilmDuration: 60},
		{ID: 8, Hall: "A", StartsAt: at("12:00"), FilmDuration: 60},
	}
	c, ok := FirstOverlap("A", at("12:30"), at("13:30"), existing)
	assert.True(t, ok)
	assert.Equal(t, uint64(8), c.ID)

	_, ok = FirstOverlap("A", at("11:00"), at("12:00"), existing)
	assert.False(t, ok)
}

func TestStatusIsDerivedFromNow(t *testing.T) {
	s := model.Screening{StartsAt: at("18:00")}
	assert.Equal(t, StatusFuture, Status(s, at("17:59")))
	assert.Equal(t, StatusPast, Status(s, at("18:00")))
	assert.Equal(t, StatusPast, Status(s, at("20:00")))
	assert.Equal(t, "future", StatusFuture.String())
}
