package service

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/queue"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Transactor runs fn inside one all-or-nothing transaction.  Stores
// called with the ctx handed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// FilmStore persists films.  Lookups of missing rows return
// repository.ErrNotFound.
type FilmStore interface {
	Create(ctx context.Context, f *model.Film) error
	GetByID(ctx context.Context, id uint64) (*model.Film, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*model.Film, error)
	FindByTitle(ctx context.Context, title string) (*model.Film, error)
	Update(ctx context.Context, f *model.Film) error
	Delete(ctx context.Context, id uint64) (bool, error)
	List(ctx context.Context, activeOnly bool, now time.Time) ([]model.Film, error)
}

// ScreeningStore persists screenings.
type ScreeningStore interface {
	Create(ctx context.Context, s *model.Screening) error
	GetByID(ctx context.Context, id uint64) (*model.Screening, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*model.Screening, error)
	ListByHallForUpdate(ctx context.Context, hall string) ([]model.Screening, error)
	ListByFilm(ctx context.Context, filmID uint64) ([]model.Screening, error)
	List(ctx context.Context, filter model.ScreeningFilter) ([]model.Screening, error)
	ListStartingAfter(ctx context.Context, t time.Time) ([]model.Screening, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Screening, error)
	CountByFilm(ctx context.Context, filmID uint64, now time.Time) (future, total int, err error)
	Update(ctx context.Context, s *model.Screening) error
	Delete(ctx context.Context, id uint64) (bool, error)
}

// TicketStore persists tickets.
type TicketStore interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*model.Ticket, error)
	GetBySeat(ctx context.Context, screeningID uint64, seat string) (*model.Ticket, error)
	MarkSold(ctx context.Context, id uint64, at time.Time, orderID *uint64) (bool, error)
	MarkAvailable(ctx context.Context, id uint64) (bool, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	DeleteUnsoldByScreening(ctx context.Context, screeningID uint64) (int64, error)
	CountSold(ctx context.Context, screeningID uint64) (int, error)
	ListByScreening(ctx context.Context, screeningID uint64, sold *bool) ([]model.Ticket, error)
}

// SalesStore reads sold tickets for reporting.
type SalesStore interface {
	SoldBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error)
}

// LicenseStore reads screening licenses.
type LicenseStore interface {
	GetByID(ctx context.Context, id uint64) (*model.License, error)
	ListEndingBetween(ctx context.Context, from, to time.Time) ([]model.License, error)
}

// SalePublisher announces committed ticket sales and cancellations.
type SalePublisher interface {
	PublishTicketSale(ctx context.Context, evt queue.TicketSaleEvent) error
}

// Deps bundles the collaborators of the services.  Each constructor
// checks the fields it needs.
type Deps struct {
	Tx         Transactor
	Films      FilmStore
	Screenings ScreeningStore
	Tickets    TicketStore
	Sales      SalesStore
	Licenses   LicenseStore
	Publisher  SalePublisher // optional
	Clock      clockwork.Clock
	Location   *time.Location
	Log        logrus.FieldLogger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return d
}
