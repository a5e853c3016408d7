package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	maxPopularLimit = 100
	maxReportDays   = 3650
)

// ReportService derives revenue, occupancy and popularity figures from
// persisted tickets.  It never writes.
type ReportService struct {
	screenings ScreeningStore
	tickets    TicketStore
	sales      SalesStore
	clock      clockwork.Clock
	loc        *time.Location
}

// NewReportService panics when a required store is missing.
func NewReportService(d Deps) *ReportService {
	if d.Screenings == nil || d.Tickets == nil || d.Sales == nil {
		panic("service: NewReportService requires Screenings, Tickets and Sales")
	}
	d = d.withDefaults()
	return &ReportService{screenings: d.Screenings, tickets: d.Tickets, sales: d.Sales, clock: d.Clock, loc: d.Location}
}

func sumPrices(sales []model.Sale) decimal.Decimal {
	return lo.Reduce(sales, func(acc decimal.Decimal, s model.Sale, _ int) decimal.Decimal {
		return acc.Add(s.Price)
	}, decimal.Zero)
}

// DailyRevenue totals the tickets sold on the calendar day of date,
// with day boundaries taken in the business time zone.
func (r *ReportService) DailyRevenue(ctx context.Context, date string) (*model.DailyRevenue, error) {
	from, to, err := ParseDay(date, r.loc)
	if err != nil {
		return nil, err
	}
	sales, err := r.sales.SoldBetween(ctx, from, to)
	if err != nil {
		return nil, storage("list sales", err)
	}
	total := sumPrices(sales)

	byFilm := lo.MapToSlice(lo.GroupBy(sales, func(s model.Sale) uint64 { return s.FilmID }),
		func(filmID uint64, group []model.Sale) model.FilmRevenue {
			return model.FilmRevenue{
				FilmID:      filmID,
				FilmTitle:   group[0].FilmTitle,
				TicketsSold: len(group),
				Revenue:     roundMoney(sumPrices(group)),
			}
		})
	slices.SortFunc(byFilm, func(a, b model.FilmRevenue) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.FilmID, b.FilmID)
	})

	return &model.DailyRevenue{
		Date:               from.Format(time.DateOnly),
		TicketsSold:        len(sales),
		TotalRevenue:       roundMoney(total),
		AverageTicketPrice: average(total, len(sales)),
		ByFilm:             byFilm,
	}, nil
}

// Occupancy reports how full a screening is.  A screening without
// tickets has an occupancy rate of 0.
func (r *ReportService) Occupancy(ctx context.Context, screeningID uint64) (*model.ScreeningOccupancy, error) {
	sc, err := r.screenings.GetByID(ctx, screeningID)
	if isMissing(err) {
		return nil, notFound("screening %d not found", screeningID)
	}
	if err != nil {
		return nil, storage("get screening", err)
	}
	tickets, err := r.tickets.ListByScreening(ctx, screeningID, nil)
	if err != nil {
		return nil, storage("list tickets", err)
	}
	sold := lo.Filter(tickets, func(t model.Ticket, _ int) bool { return t.Sold })
	revenue := lo.Reduce(sold, func(acc decimal.Decimal, t model.Ticket, _ int) decimal.Decimal {
		return acc.Add(t.Price)
	}, decimal.Zero)

	return &model.ScreeningOccupancy{
		ScreeningID:    sc.ID,
		FilmTitle:      sc.FilmTitle,
		StartsAt:       sc.StartsAt,
		Hall:           sc.Hall,
		TotalSeats:     len(tickets),
		SeatsSold:      len(sold),
		SeatsAvailable: len(tickets) - len(sold),
		OccupancyRate:  percent(len(sold), len(tickets)),
		Revenue:        roundMoney(revenue),
		SoldSeats:      lo.Map(sold, func(t model.Ticket, _ int) string { return t.SeatNumber }),
	}, nil
}

// PopularFilms ranks films by tickets sold during the trailing window
// of days ending now.  Ties go to the lower film id.
func (r *ReportService) PopularFilms(ctx context.Context, limit, days int) ([]model.PopularFilm, error) {
	if limit <= 0 || limit > maxPopularLimit {
		return nil, invalid("limit must be between 1 and %d, got %d", maxPopularLimit, limit)
	}
	if days <= 0 || days > maxReportDays {
		return nil, invalid("days must be between 1 and %d, got %d", maxReportDays, days)
	}
	now := r.clock.Now()
	sales, err := r.sales.SoldBetween(ctx, now.AddDate(0, 0, -days), now.Add(time.Microsecond))
	if err != nil {
		return nil, storage("list sales", err)
	}

	rows := lo.MapToSlice(lo.GroupBy(sales, func(s model.Sale) uint64 { return s.FilmID }),
		func(filmID uint64, group []model.Sale) model.PopularFilm {
			total := sumPrices(group)
			return model.PopularFilm{
				FilmID:             filmID,
				FilmTitle:          group[0].FilmTitle,
				TicketsSold:        len(group),
				TotalRevenue:       roundMoney(total),
				AverageTicketPrice: average(total, len(group)),
			}
		})
	slices.SortFunc(rows, func(a, b model.PopularFilm) int {
		if c := cmp.Compare(b.TicketsSold, a.TicketsSold); c != 0 {
			return c
		}
		return cmp.Compare(a.FilmID, b.FilmID)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
