// Package queue defines the ticket sale events exchanged over RabbitMQ,
// the publisher the services use to emit them and the consumer that
// appends them to the sales log.
package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/shopspring/decimal"
)

// Event types carried in TicketSaleEvent.Type.
const (
	EventTicketSold      = "ticket.sold"
	EventTicketCancelled = "ticket.cancelled"
)

// TicketSaleEvent is published after a sale or a cancellation commits.
// It carries enough of the screening for consumers to log the sale
// without querying the primary database.
type TicketSaleEvent struct {
	EventID     string          `json:"event_id"`
	Type        string          `json:"type"`
	TicketID    uint64          `json:"ticket_id"`
	ScreeningID uint64          `json:"screening_id"`
	FilmID      uint64          `json:"film_id"`
	FilmTitle   string          `json:"film_title"`
	Hall        string          `json:"hall"`
	StartsAt    time.Time       `json:"starts_at"`
	SeatNumber  string          `json:"seat_number"`
	Price       decimal.Decimal `json:"price"`
	OrderID     *uint64         `json:"order_id,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewTicketSaleEvent builds an event of the given type with a fresh id.
func NewTicketSaleEvent(typ string, t model.Ticket, s model.Screening, at time.Time) TicketSaleEvent {
	return TicketSaleEvent{
		EventID:     uuid.NewString(),
		Type:        typ,
		TicketID:    t.ID,
		ScreeningID: s.ID,
		FilmID:      s.FilmID,
		FilmTitle:   s.FilmTitle,
		Hall:        s.Hall,
		StartsAt:    s.StartsAt.UTC(),
		SeatNumber:  t.SeatNumber,
		Price:       t.Price,
		OrderID:     t.OrderID,
		OccurredAt:  at.UTC(),
	}
}
