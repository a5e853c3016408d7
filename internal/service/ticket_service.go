package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/queue"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxSeatLen = 16

// TicketService runs the per-seat inventory state machine:
//
//	Available --Sell--> Sold --Cancel--> Available
//
// Issue creates Available tickets and Delete removes them.  Every
// transition locks the owning screening row and then the ticket row,
// and the sold flag is flipped with a compare-and-set, so concurrent
// sales of one seat cannot both succeed.
type TicketService struct {
	tx         Transactor
	screenings ScreeningStore
	tickets    TicketStore
	publisher  SalePublisher
	clock      clockwork.Clock
	log        logrus.FieldLogger
}

// NewTicketService panics when a required store is missing.  The
// publisher is optional.
func NewTicketService(d Deps) *TicketService {
	if d.Tx == nil || d.Screenings == nil || d.Tickets == nil {
		panic("service: NewTicketService requires Tx, Screenings and Tickets")
	}
	d = d.withDefaults()
	return &TicketService{tx: d.Tx, screenings: d.Screenings, tickets: d.Tickets, publisher: d.Publisher, clock: d.Clock, log: d.Log}
}

// IssueTicketInput describes a new ticket.  A nil Price takes the
// screening's ticket price.
type IssueTicketInput struct {
	ScreeningID uint64
	SeatNumber  string
	Price       *decimal.Decimal
}

// Issue creates an available ticket for a seat of a future screening.
func (s *TicketService) Issue(ctx context.Context, in IssueTicketInput) (*model.Ticket, error) {
	if in.ScreeningID == 0 {
		return nil, invalid("screening id must be a positive integer")
	}
	seat := strings.TrimSpace(in.SeatNumber)
	if seat == "" {
		return nil, invalid("seat number must not be empty")
	}
	if utf8.RuneCountInString(seat) > maxSeatLen {
		return nil, invalid("seat number must be at most %d characters", maxSeatLen)
	}
	var price decimal.Decimal
	if in.Price != nil {
		p, err := checkPrice("ticket price", *in.Price)
		if err != nil {
			return nil, err
		}
		price = p
	}

	t := &model.Ticket{ScreeningID: in.ScreeningID, SeatNumber: seat}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sc, err := s.screenings.GetByIDForUpdate(ctx, in.ScreeningID)
		if isMissing(err) {
			return violation(ErrUnknownReference, "screening %d not found", in.ScreeningID)
		}
		if err != nil {
			return storage("get screening", err)
		}
		if Status(*sc, s.clock.Now()) == StatusPast {
			return violation(ErrScreeningStarted, "cannot issue tickets for screening %d: it has already started", sc.ID)
		}
		existing, err := s.tickets.GetBySeat(ctx, sc.ID, seat)
		switch {
		case err == nil && existing.Sold:
			return violation(ErrSeatSold, "seat %s is already sold", seat)
		case err == nil:
			return violation(ErrSeatExists, "seat %s already exists (ticket %d)", seat, existing.ID)
		case !isMissing(err):
			return storage("get ticket by seat", err)
		}
		t.Price = price
		if in.Price == nil {
			t.Price = roundMoney(sc.TicketPrice)
		}
		if err := s.tickets.Create(ctx, t); err != nil {
			if isDuplicate(err) {
				return violation(ErrSeatExists, "seat %s already exists", seat)
			}
			return storage("create ticket", err)
		}
		return nil
	})
	if err != nil {
		return nil, storage("issue ticket", err)
	}
	s.log.WithFields(logrus.Fields{"ticket_id": t.ID, "screening_id": t.ScreeningID, "seat": t.SeatNumber}).Info("ticket issued")
	return t, nil
}

// Sell flips an available ticket to sold, stamping the sale time and
// the optional order.  It returns nil, nil when the ticket does not
// exist.
func (s *TicketService) Sell(ctx context.Context, id uint64, orderID *uint64) (*model.Ticket, error) {
	if orderID != nil && *orderID == 0 {
		return nil, invalid("order id must be a positive integer")
	}
	var (
		t  *model.Ticket
		sc *model.Screening
		at time.Time
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		t, sc, err = s.lock(ctx, id)
		if err != nil || t == nil {
			return err
		}
		if t.Sold {
			return violation(ErrTicketAlreadySold, "ticket %d is already sold", id)
		}
		at = s.clock.Now()
		if Status(*sc, at) == StatusPast {
			return violation(ErrScreeningStarted, "cannot sell ticket %d: screening %d has already started", id, sc.ID)
		}
		ok, err := s.tickets.MarkSold(ctx, id, at, orderID)
		if err != nil {
			return storage("sell ticket", err)
		}
		if !ok {
			return violation(ErrTicketAlreadySold, "ticket %d is already sold", id)
		}
		t, err = s.tickets.GetByID(ctx, id)
		return storage("reload ticket", err)
	})
	if err != nil {
		return nil, storage("sell ticket", err)
	}
	if t == nil {
		return nil, nil
	}
	s.log.WithFields(logrus.Fields{"ticket_id": t.ID, "screening_id": t.ScreeningID, "price": t.Price.StringFixed(2)}).Info("ticket sold")
	s.publish(ctx, queue.EventTicketSold, *t, *sc, at)
	return t, nil
}

// Cancel reverts a sale.  It returns nil, nil when the ticket does not
// exist.
func (s *TicketService) Cancel(ctx context.Context, id uint64) (*model.Ticket, error) {
	var (
		t  *model.Ticket
		sc *model.Screening
		at time.Time
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		t, sc, err = s.lock(ctx, id)
		if err != nil || t == nil {
			return err
		}
		if !t.Sold {
			return violation(ErrTicketNotSold, "ticket %d is not sold; nothing to cancel", id)
		}
		at = s.clock.Now()
		if Status(*sc, at) == StatusPast {
			return violation(ErrScreeningStarted, "cannot cancel ticket %d: screening %d has already started", id, sc.ID)
		}
		ok, err := s.tickets.MarkAvailable(ctx, id)
		if err != nil {
			return storage("cancel ticket", err)
		}
		if !ok {
			return violation(ErrTicketNotSold, "ticket %d is not sold; nothing to cancel", id)
		}
		t, err = s.tickets.GetByID(ctx, id)
		return storage("reload ticket", err)
	})
	if err != nil {
		return nil, storage("cancel ticket", err)
	}
	if t == nil {
		return nil, nil
	}
	s.log.WithFields(logrus.Fields{"ticket_id": t.ID, "screening_id": t.ScreeningID}).Info("ticket sale cancelled")
	s.publish(ctx, queue.EventTicketCancelled, *t, *sc, at)
	return t, nil
}

// lock loads a ticket and its screening, locking the screening row
// before the ticket row.  A nil ticket means it does not exist.
func (s *TicketService) lock(ctx context.Context, id uint64) (*model.Ticket, *model.Screening, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if isMissing(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, storage("get ticket", err)
	}
	sc, err := s.screenings.GetByIDForUpdate(ctx, t.ScreeningID)
	if err != nil {
		return nil, nil, storage("get screening", err)
	}
	t, err = s.tickets.GetByIDForUpdate(ctx, id)
	if isMissing(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, storage("lock ticket", err)
	}
	return t, sc, nil
}

func (s *TicketService) publish(ctx context.Context, typ string, t model.Ticket, sc model.Screening, at time.Time) {
	if s.publisher == nil {
		return
	}
	evt := queue.NewTicketSaleEvent(typ, t, sc, at)
	if err := s.publisher.PublishTicketSale(ctx, evt); err != nil {
		s.log.WithError(err).WithField("ticket_id", t.ID).Warn("ticket sale event not published")
	}
}

// Delete removes an available ticket.  It returns false, nil when the
// ticket does not exist.  Sold tickets must be cancelled first.
func (s *TicketService) Delete(ctx context.Context, id uint64) (bool, error) {
	var deleted bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.tickets.GetByIDForUpdate(ctx, id)
		if isMissing(err) {
			return nil
		}
		if err != nil {
			return storage("get ticket", err)
		}
		if t.Sold {
			return violation(ErrTicketSoldDelete, "cannot delete sold ticket %d; cancel the sale first", id)
		}
		deleted, err = s.tickets.Delete(ctx, id)
		return storage("delete ticket", err)
	})
	if err != nil {
		return false, storage("delete ticket", err)
	}
	if deleted {
		s.log.WithField("ticket_id", id).Info("ticket deleted")
	}
	return deleted, nil
}

// Get returns a ticket or an ErrNotFound error.
func (s *TicketService) Get(ctx context.Context, id uint64) (*model.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if isMissing(err) {
		return nil, notFound("ticket %d not found", id)
	}
	if err != nil {
		return nil, storage("get ticket", err)
	}
	return t, nil
}

// ListByScreening returns the screening's tickets ordered by seat
// number, optionally narrowed to sold or unsold ones.
func (s *TicketService) ListByScreening(ctx context.Context, screeningID uint64, sold *bool) ([]model.Ticket, error) {
	if _, err := s.screenings.GetByID(ctx, screeningID); err != nil {
		if isMissing(err) {
			return nil, notFound("screening %d not found", screeningID)
		}
		return nil, storage("get screening", err)
	}
	tickets, err := s.tickets.ListByScreening(ctx, screeningID, sold)
	if err != nil {
		return nil, storage("list tickets", err)
	}
	return tickets, nil
}

// AvailableSeats returns the seat numbers of the screening's unsold
// tickets.
func (s *TicketService) AvailableSeats(ctx context.Context, screeningID uint64) ([]string, error) {
	unsold := false
	tickets, err := s.ListByScreening(ctx, screeningID, &unsold)
	if err != nil {
		return nil, err
	}
	return lo.Map(tickets, func(t model.Ticket, _ int) string { return t.SeatNumber }), nil
}
