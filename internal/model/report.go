package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FilmRevenue is the revenue one film earned in a reporting window.
type FilmRevenue struct {
	FilmID      uint64          `json:"film_id"`
	FilmTitle   string          `json:"film_title"`
	TicketsSold int             `json:"tickets_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// DailyRevenue summarises ticket sales of one calendar day.
type DailyRevenue struct {
	Date               string          `json:"date"`
	TicketsSold        int             `json:"total_tickets_sold"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	AverageTicketPrice decimal.Decimal `json:"average_ticket_price"`
	ByFilm             []FilmRevenue   `json:"revenue_by_film"`
}

// ScreeningOccupancy describes how full a screening is.
type ScreeningOccupancy struct {
	ScreeningID    uint64          `json:"screening_id"`
	FilmTitle      string          `json:"film_title"`
	StartsAt       time.Time       `json:"starts_at"`
	Hall           string          `json:"hall"`
	TotalSeats     int             `json:"total_seats"`
	SeatsSold      int             `json:"seats_sold"`
	SeatsAvailable int             `json:"seats_available"`
	OccupancyRate  decimal.Decimal `json:"occupancy_rate"`
	Revenue        decimal.Decimal `json:"total_revenue"`
	SoldSeats      []string        `json:"sold_seat_numbers"`
}

// PopularFilm is one row of the popularity ranking.
type PopularFilm struct {
	Rank               int             `json:"rank"`
	FilmID             uint64          `json:"film_id"`
	FilmTitle          string          `json:"film_title"`
	TicketsSold        int             `json:"tickets_sold"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	AverageTicketPrice decimal.Decimal `json:"average_ticket_price"`
}
