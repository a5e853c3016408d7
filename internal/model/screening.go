package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Screening is a scheduled showing of a film in a hall.  The end of a
// screening is not stored: it is derived from the start time and the
// film's running time, so FilmDuration is loaded through a join with
// the films table whenever a screening is read.
//
// Fields:
//  ID           – primary key identifier.
//  FilmID       – film being shown.
//  StartsAt     – start of the screening (UTC).
//  Hall         – free-text hall name.
//  TicketPrice  – default ticket price, two decimal places.
//  FilmTitle    – films.title, read only.
//  FilmDuration – films.duration_minutes, read only.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Screening struct {
	ID           uint64          `json:"id"`            // screenings.id
	FilmID       uint64          `json:"film_id"`       // screenings.film_id
	StartsAt     time.Time       `json:"starts_at"`     // screenings.starts_at
	Hall         string          `json:"hall"`          // screenings.hall
	TicketPrice  decimal.Decimal `json:"ticket_price"`  // screenings.ticket_price
	FilmTitle    string          `json:"film_title"`    // films.title
	FilmDuration int             `json:"film_duration"` // films.duration_minutes
	CreatedAt    time.Time       `json:"created_at"`    // screenings.created_at
	UpdatedAt    time.Time       `json:"updated_at"`    // screenings.updated_at
}

// EndsAt returns the end of the occupied interval [StartsAt, EndsAt).
func (s Screening) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.FilmDuration) * time.Minute)
}

// ScreeningListing is the public view of an upcoming screening.
type ScreeningListing struct {
	ScreeningID     uint64          `json:"screening_id"`
	FilmID          uint64          `json:"film_id"`
	FilmTitle       string          `json:"film_title"`
	StartsAt        time.Time       `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	Hall            string          `json:"hall"`
	TicketPrice     decimal.Decimal `json:"ticket_price"`
	DurationMinutes int             `json:"duration_minutes"`
}

// Listing converts a screening to its public listing form.
func (s Screening) Listing() ScreeningListing {
	return ScreeningListing{
		ScreeningID:     s.ID,
		FilmID:          s.FilmID,
		FilmTitle:       s.FilmTitle,
		StartsAt:        s.StartsAt,
		EndsAt:          s.EndsAt(),
		Hall:            s.Hall,
		TicketPrice:     s.TicketPrice,
		DurationMinutes: s.FilmDuration,
	}
}

// ScreeningFilter narrows a screening listing.  Nil fields are ignored;
// From and To are inclusive.
type ScreeningFilter struct {
	FilmID *uint64
	From   *time.Time
	To     *time.Time
}
