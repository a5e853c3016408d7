package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxHallLen = 64

// ScreeningService schedules screenings and guards their lifecycle.
// Whether a screening is still in the future is recomputed from the
// clock at every guard point.
type ScreeningService struct {
	tx         Transactor
	films      FilmStore
	screenings ScreeningStore
	tickets    TicketStore
	clock      clockwork.Clock
	loc        *time.Location
	log        logrus.FieldLogger
}

// NewScreeningService panics when a required store is missing.
func NewScreeningService(d Deps) *ScreeningService {
	if d.Tx == nil || d.Films == nil || d.Screenings == nil || d.Tickets == nil {
		panic("service: NewScreeningService requires Tx, Films, Screenings and Tickets")
	}
	d = d.withDefaults()
	return &ScreeningService{
		tx: d.Tx, films: d.Films, screenings: d.Screenings, tickets: d.Tickets,
		clock: d.Clock, loc: d.Location, log: d.Log,
	}
}

type CreateScreeningInput struct {
	FilmID      uint64
	StartsAt    string
	Hall        string
	TicketPrice decimal.Decimal
}

// UpdateScreeningInput carries the fields to change; nil fields are kept.
type UpdateScreeningInput struct {
	StartsAt    *string
	Hall        *string
	TicketPrice *decimal.Decimal
}

func checkHall(hall string) (string, error) {
	hall = strings.TrimSpace(hall)
	if hall == "" {
		return "", invalid("hall name must not be empty")
	}
	if utf8.RuneCountInString(hall) > maxHallLen {
		return "", invalid("hall name must be at most %d characters", maxHallLen)
	}
	return hall, nil
}

// Create schedules a screening.  The film row and then the hall's
// screenings are locked before the overlap check, so the duration and
// the neighbours stay fixed until the insert commits.
func (s *ScreeningService) Create(ctx context.Context, in CreateScreeningInput) (*model.Screening, error) {
	if in.FilmID == 0 {
		return nil, invalid("film id must be a positive integer")
	}
	start, err := ParseDateTime(in.StartsAt, s.loc)
	if err != nil {
		return nil, err
	}
	hall, err := checkHall(in.Hall)
	if err != nil {
		return nil, err
	}
	price, err := checkPrice("ticket price", in.TicketPrice)
	if err != nil {
		return nil, err
	}
	if !start.After(s.clock.Now()) {
		return nil, violation(ErrStartInPast, "screening start %s is in the past", start.Format("2006-01-02 15:04"))
	}

	sc := &model.Screening{FilmID: in.FilmID, StartsAt: start.UTC(), Hall: hall, TicketPrice: price}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		film, err := s.films.GetByIDForUpdate(ctx, in.FilmID)
		if isMissing(err) {
			return violation(ErrUnknownReference, "film %d not found", in.FilmID)
		}
		if err != nil {
			return storage("get film", err)
		}
		existing, err := s.screenings.ListByHallForUpdate(ctx, hall)
		if err != nil {
			return storage("list hall screenings", err)
		}
		if err := hallConflict(hall, sc.StartsAt, sc.StartsAt.Add(film.Duration()), existing); err != nil {
			return err
		}
		return storage("create screening", s.screenings.Create(ctx, sc))
	})
	if err != nil {
		return nil, storage("create screening", err)
	}
	s.log.WithFields(logrus.Fields{"screening_id": sc.ID, "film_id": sc.FilmID, "hall": sc.Hall}).Info("screening created")
	return sc, nil
}

func hallConflict(hall string, start, end time.Time, existing []model.Screening) error {
	c, ok := FirstOverlap(hall, start, end, existing)
	if !ok {
		return nil
	}
	return violation(ErrHallOverlap, "time conflict in hall %q: screening %d (%s) runs %s - %s",
		hall, c.ID, c.FilmTitle, c.StartsAt.Format(time.RFC3339), c.EndsAt().Format(time.RFC3339))
}

// Update edits a future screening.  It returns nil, nil when the
// screening does not exist.  The guard uses the currently stored start,
// so a screening that has begun refuses every edit.
func (s *ScreeningService) Update(ctx context.Context, id uint64, in UpdateScreeningInput) (*model.Screening, error) {
	var (
		start *time.Time
		hall  *string
		price *decimal.Decimal
	)
	if in.StartsAt != nil {
		t, err := ParseDateTime(*in.StartsAt, s.loc)
		if err != nil {
			return nil, err
		}
		t = t.UTC()
		start = &t
	}
	if in.Hall != nil {
		h, err := checkHall(*in.Hall)
		if err != nil {
			return nil, err
		}
		hall = &h
	}
	if in.TicketPrice != nil {
		p, err := checkPrice("ticket price", *in.TicketPrice)
		if err != nil {
			return nil, err
		}
		price = &p
	}

	var out *model.Screening
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sc, err := s.lockWithFilm(ctx, id)
		if isMissing(err) {
			return nil
		}
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if Status(*sc, now) == StatusPast {
			return violation(ErrScreeningStarted, "screening %d has already started and can no longer be changed", id)
		}
		if start != nil && !start.After(now) {
			return violation(ErrStartInPast, "new start %s is in the past", start.In(s.loc).Format("2006-01-02 15:04"))
		}

		moved := false
		if start != nil && !start.Equal(sc.StartsAt) {
			sc.StartsAt = *start
			moved = true
		}
		if hall != nil && *hall != sc.Hall {
			moved = moved || !sameHall(*hall, sc.Hall)
			sc.Hall = *hall
		}
		if price != nil {
			sc.TicketPrice = *price
		}
		if moved {
			existing, err := s.screenings.ListByHallForUpdate(ctx, sc.Hall)
			if err != nil {
				return storage("list hall screenings", err)
			}
			others := make([]model.Screening, 0, len(existing))
			for _, o := range existing {
				if o.ID != sc.ID {
					others = append(others, o)
				}
			}
			if err := hallConflict(sc.Hall, sc.StartsAt, sc.EndsAt(), others); err != nil {
				return err
			}
		}
		if err := s.screenings.Update(ctx, sc); err != nil {
			return storage("update screening", err)
		}
		out = sc
		return nil
	})
	if err != nil {
		return nil, storage("update screening", err)
	}
	if out != nil {
		s.log.WithField("screening_id", id).Info("screening updated")
	}
	return out, nil
}

// lockWithFilm locks the screening's film and then the screening,
// the same order FilmService.Update uses, and returns the screening
// with the locked film's duration.
func (s *ScreeningService) lockWithFilm(ctx context.Context, id uint64) (*model.Screening, error) {
	cur, err := s.screenings.GetByID(ctx, id)
	if isMissing(err) {
		return nil, err
	}
	if err != nil {
		return nil, storage("get screening", err)
	}
	film, err := s.films.GetByIDForUpdate(ctx, cur.FilmID)
	if err != nil {
		return nil, storage("lock film", err)
	}
	sc, err := s.screenings.GetByIDForUpdate(ctx, id)
	if isMissing(err) {
		return nil, err
	}
	if err != nil {
		return nil, storage("get screening", err)
	}
	sc.FilmTitle, sc.FilmDuration = film.Title, film.DurationMinutes
	return sc, nil
}

// Delete removes a future screening without sold tickets together with
// its unsold tickets.  It returns false, nil when the screening does
// not exist.
func (s *ScreeningService) Delete(ctx context.Context, id uint64) (bool, error) {
	var deleted bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sc, err := s.screenings.GetByIDForUpdate(ctx, id)
		if isMissing(err) {
			return nil
		}
		if err != nil {
			return storage("get screening", err)
		}
		if Status(*sc, s.clock.Now()) == StatusPast {
			return violation(ErrScreeningStarted, "screening %d has already started and cannot be deleted", id)
		}
		sold, err := s.tickets.CountSold(ctx, id)
		if err != nil {
			return storage("count sold tickets", err)
		}
		if sold > 0 {
			return violation(ErrScreeningHasSoldTickets, "cannot delete screening %d: %d tickets sold", id, sold)
		}
		if _, err := s.tickets.DeleteUnsoldByScreening(ctx, id); err != nil {
			return storage("delete screening tickets", err)
		}
		deleted, err = s.screenings.Delete(ctx, id)
		return storage("delete screening", err)
	})
	if err != nil {
		return false, storage("delete screening", err)
	}
	if deleted {
		s.log.WithField("screening_id", id).Info("screening deleted")
	}
	return deleted, nil
}

// Get returns a screening or an ErrNotFound error.
func (s *ScreeningService) Get(ctx context.Context, id uint64) (*model.Screening, error) {
	sc, err := s.screenings.GetByID(ctx, id)
	if isMissing(err) {
		return nil, notFound("screening %d not found", id)
	}
	if err != nil {
		return nil, storage("get screening", err)
	}
	return sc, nil
}

// ListFilter narrows List.  Empty strings and a zero FilmID are ignored.
type ListFilter struct {
	FilmID uint64
	From   string
	To     string
}

// List returns screenings matching f ordered by start time.
func (s *ScreeningService) List(ctx context.Context, f ListFilter) ([]model.Screening, error) {
	var filter model.ScreeningFilter
	if f.FilmID != 0 {
		id := f.FilmID
		filter.FilmID = &id
	}
	if f.From != "" {
		t, err := ParseDateTime(f.From, s.loc)
		if err != nil {
			return nil, err
		}
		filter.From = &t
	}
	if f.To != "" {
		t, err := ParseDateTime(f.To, s.loc)
		if err != nil {
			return nil, err
		}
		filter.To = &t
	}
	list, err := s.screenings.List(ctx, filter)
	if err != nil {
		return nil, storage("list screenings", err)
	}
	return list, nil
}

// ListAvailable returns the screenings tickets can still be sold for.
func (s *ScreeningService) ListAvailable(ctx context.Context) ([]model.ScreeningListing, error) {
	list, err := s.screenings.ListStartingAfter(ctx, s.clock.Now())
	if err != nil {
		return nil, storage("list upcoming screenings", err)
	}
	out := make([]model.ScreeningListing, 0, len(list))
	for _, sc := range list {
		out = append(out, sc.Listing())
	}
	return out, nil
}

// ListForDate returns the screenings starting on the given calendar day.
func (s *ScreeningService) ListForDate(ctx context.Context, date string) ([]model.ScreeningListing, error) {
	from, to, err := ParseDay(date, s.loc)
	if err != nil {
		return nil, err
	}
	list, err := s.screenings.ListBetween(ctx, from, to)
	if err != nil {
		return nil, storage("list screenings for date", err)
	}
	out := make([]model.ScreeningListing, 0, len(list))
	for _, sc := range list {
		out = append(out, sc.Listing())
	}
	return out, nil
}
