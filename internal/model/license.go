package model

import "time"

// License grants the right to screen a film for a period of time.
// Licenses are maintained by the procurement side; this service only
// reads them to validate film references and to report expiry.
type License struct {
	ID         uint64    `json:"id"`          // licenses.id
	SupplierID uint64    `json:"supplier_id"` // licenses.supplier_id
	ContractID uint64    `json:"contract_id"` // licenses.contract_id
	FilmTitle  string    `json:"film_title"`  // licenses.film_title
	DigitalKey *string   `json:"digital_key"` // licenses.digital_key (nullable)
	StartDate  time.Time `json:"start_date"`  // licenses.start_date
	EndDate    time.Time `json:"end_date"`    // licenses.end_date
}

// ExpiringLicense is a license together with the number of whole days
// left until its end date.
type ExpiringLicense struct {
	License
	DaysLeft int `json:"days_left"`
}
