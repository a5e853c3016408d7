package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is one seat offered for one screening.  A ticket is either
// available (Sold=false, SoldAt=nil, OrderID=nil) or sold
// (Sold=true, SoldAt set, OrderID optional).  The pair
// (ScreeningID, SeatNumber) is unique.
//
// Fields:
//  ID          – primary key identifier.
//  ScreeningID – owning screening.
//  SeatNumber  – seat label, unique within the screening.
//  Price       – ticket price, two decimal places.
//  Sold        – whether the seat has been sold.
//  SoldAt      – when the sale happened (nil while available).
//  OrderID     – client order the sale belongs to (nil while available).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Ticket struct {
	ID          uint64          `json:"id"`           // tickets.id
	ScreeningID uint64          `json:"screening_id"` // tickets.screening_id
	SeatNumber  string          `json:"seat_number"`  // tickets.seat_number
	Price       decimal.Decimal `json:"price"`        // tickets.price
	Sold        bool            `json:"sold"`         // tickets.sold
	SoldAt      *time.Time      `json:"sold_at"`      // tickets.sold_at (nullable)
	OrderID     *uint64         `json:"order_id"`     // tickets.order_id (nullable)
	CreatedAt   time.Time       `json:"created_at"`   // tickets.created_at
	UpdatedAt   time.Time       `json:"updated_at"`   // tickets.updated_at
}

// Sale is a sold ticket joined with the film it was sold for.  It is
// the input row of the revenue and popularity reports.
type Sale struct {
	TicketID    uint64
	ScreeningID uint64
	FilmID      uint64
	FilmTitle   string
	Price       decimal.Decimal
	SoldAt      time.Time
}
