package model

import "time"

// Film is a title the cinema is licensed to screen.  Films are
// referenced by screenings but do not own them; the relationship is
// resolved through repository lookups rather than back pointers.
//
// Fields:
//  ID              – primary key identifier.
//  LicenseID       – license under which the film is screened (nil if none).
//  Title           – display title, unique ignoring case.
//  DurationMinutes – running time in minutes (1..300).
//  Description     – free-text synopsis, may be empty.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Film struct {
	ID              uint64    `json:"id"`               // films.id
	LicenseID       *uint64   `json:"license_id"`       // films.license_id (nullable)
	Title           string    `json:"title"`            // films.title
	DurationMinutes int       `json:"duration_minutes"` // films.duration_minutes
	Description     string    `json:"description"`      // films.description
	CreatedAt       time.Time `json:"created_at"`       // films.created_at
	UpdatedAt       time.Time `json:"updated_at"`       // films.updated_at
}

// Duration returns the running time as a time.Duration.
func (f Film) Duration() time.Duration {
	return time.Duration(f.DurationMinutes) * time.Minute
}
