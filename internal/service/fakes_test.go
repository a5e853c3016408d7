package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/queue"
	"github.com/iliyamo/cinema-box-office/internal/repository"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// memDB is an in-memory stand-in for the MySQL repositories.  Each
// store view below exposes the subset of methods one port needs.
type memDB struct {
	mu         sync.Mutex
	nextID     uint64
	films      map[uint64]model.Film
	screenings map[uint64]model.Screening
	tickets    map[uint64]model.Ticket
	licenses   map[uint64]model.License
	txCalls    int
	locks      []string
}

func newMemDB() *memDB {
	return &memDB{
		films:      map[uint64]model.Film{},
		screenings: map[uint64]model.Screening{},
		tickets:    map[uint64]model.Ticket{},
		licenses:   map[uint64]model.License{},
	}
}

func (m *memDB) id() uint64 {
	m.nextID++
	return m.nextID
}

// joined fills the film columns of a screening.
func (m *memDB) joined(s model.Screening) model.Screening {
	f := m.films[s.FilmID]
	s.FilmTitle, s.FilmDuration = f.Title, f.DurationMinutes
	return s
}

// lock records a row lock taken by a ForUpdate read.
func (m *memDB) lock(what string) {
	m.mu.Lock()
	m.locks = append(m.locks, what)
	m.mu.Unlock()
}

type memTx struct{ db *memDB }

func (t memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.db.mu.Lock()
	t.db.txCalls++
	t.db.mu.Unlock()
	return fn(ctx)
}

type memFilms struct{ db *memDB }

func (s memFilms) Create(_ context.Context, f *model.Film) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	f.ID = s.db.id()
	s.db.films[f.ID] = *f
	return nil
}

func (s memFilms) GetByID(_ context.Context, id uint64) (*model.Film, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	f, ok := s.db.films[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (s memFilms) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Film, error) {
	s.db.lock(fmt.Sprintf("film:%d", id))
	return s.GetByID(ctx, id)
}

func (s memFilms) FindByTitle(_ context.Context, title string) (*model.Film, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, f := range s.db.films {
		if strings.EqualFold(f.Title, title) {
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memFilms) Update(_ context.Context, f *model.Film) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.films[f.ID] = *f
	return nil
}

func (s memFilms) Delete(_ context.Context, id uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.films[id]
	delete(s.db.films, id)
	return ok, nil
}

func (s memFilms) List(_ context.Context, activeOnly bool, now time.Time) ([]model.Film, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Film{}
	for _, f := range s.db.films {
		if activeOnly {
			active := false
			for _, sc := range s.db.screenings {
				if sc.FilmID == f.ID && sc.StartsAt.After(now) {
					active = true
				}
			}
			if !active {
				continue
			}
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

type memScreenings struct{ db *memDB }

func (s memScreenings) Create(_ context.Context, sc *model.Screening) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sc.ID = s.db.id()
	s.db.screenings[sc.ID] = *sc
	*sc = s.db.joined(*sc)
	return nil
}

func (s memScreenings) GetByID(_ context.Context, id uint64) (*model.Screening, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sc, ok := s.db.screenings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sc = s.db.joined(sc)
	return &sc, nil
}

func (s memScreenings) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Screening, error) {
	s.db.lock(fmt.Sprintf("screening:%d", id))
	return s.GetByID(ctx, id)
}

func (s memScreenings) where(pred func(model.Screening) bool) []model.Screening {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Screening{}
	for _, sc := range s.db.screenings {
		if pred(sc) {
			out = append(out, s.db.joined(sc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

func (s memScreenings) ListByHallForUpdate(_ context.Context, hall string) ([]model.Screening, error) {
	s.db.lock("hall:" + strings.ToLower(hall))
	return s.where(func(sc model.Screening) bool { return strings.EqualFold(sc.Hall, hall) }), nil
}

func (s memScreenings) ListByFilm(_ context.Context, filmID uint64) ([]model.Screening, error) {
	return s.where(func(sc model.Screening) bool { return sc.FilmID == filmID }), nil
}

func (s memScreenings) List(_ context.Context, f model.ScreeningFilter) ([]model.Screening, error) {
	return s.where(func(sc model.Screening) bool {
		return (f.FilmID == nil || sc.FilmID == *f.FilmID) &&
			(f.From == nil || !sc.StartsAt.Before(*f.From)) &&
			(f.To == nil || !sc.StartsAt.After(*f.To))
	}), nil
}

func (s memScreenings) ListStartingAfter(_ context.Context, t time.Time) ([]model.Screening, error) {
	return s.where(func(sc model.Screening) bool { return sc.StartsAt.After(t) }), nil
}

func (s memScreenings) ListBetween(_ context.Context, from, to time.Time) ([]model.Screening, error) {
	return s.where(func(sc model.Screening) bool { return !sc.StartsAt.Before(from) && sc.StartsAt.Before(to) }), nil
}

func (s memScreenings) CountByFilm(_ context.Context, filmID uint64, now time.Time) (int, int, error) {
	all := s.where(func(sc model.Screening) bool { return sc.FilmID == filmID })
	future := 0
	for _, sc := range all {
		if sc.StartsAt.After(now) {
			future++
		}
	}
	return future, len(all), nil
}

func (s memScreenings) Update(_ context.Context, sc *model.Screening) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.screenings[sc.ID] = *sc
	*sc = s.db.joined(*sc)
	return nil
}

func (s memScreenings) Delete(_ context.Context, id uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.screenings[id]
	delete(s.db.screenings, id)
	return ok, nil
}

type memTickets struct{ db *memDB }

func (s memTickets) Create(_ context.Context, t *model.Ticket) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, o := range s.db.tickets {
		if o.ScreeningID == t.ScreeningID && o.SeatNumber == t.SeatNumber {
			return repository.ErrDuplicate
		}
	}
	t.ID = s.db.id()
	s.db.tickets[t.ID] = *t
	return nil
}

func (s memTickets) GetByID(_ context.Context, id uint64) (*model.Ticket, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s memTickets) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Ticket, error) {
	return s.GetByID(ctx, id)
}

func (s memTickets) GetBySeat(_ context.Context, screeningID uint64, seat string) (*model.Ticket, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.tickets {
		if t.ScreeningID == screeningID && t.SeatNumber == seat {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memTickets) MarkSold(_ context.Context, id uint64, at time.Time, orderID *uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tickets[id]
	if !ok || t.Sold {
		return false, nil
	}
	t.Sold, t.SoldAt, t.OrderID = true, &at, orderID
	s.db.tickets[id] = t
	return true, nil
}

func (s memTickets) MarkAvailable(_ context.Context, id uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tickets[id]
	if !ok || !t.Sold {
		return false, nil
	}
	t.Sold, t.SoldAt, t.OrderID = false, nil, nil
	s.db.tickets[id] = t
	return true, nil
}

func (s memTickets) Delete(_ context.Context, id uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tickets[id]
	if !ok || t.Sold {
		return false, nil
	}
	delete(s.db.tickets, id)
	return true, nil
}

func (s memTickets) DeleteUnsoldByScreening(_ context.Context, screeningID uint64) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, t := range s.db.tickets {
		if t.ScreeningID == screeningID && !t.Sold {
			delete(s.db.tickets, id)
			n++
		}
	}
	return n, nil
}

func (s memTickets) CountSold(_ context.Context, screeningID uint64) (int, error) {
	sold := true
	list, _ := s.ListByScreening(context.Background(), screeningID, &sold)
	return len(list), nil
}

func (s memTickets) ListByScreening(_ context.Context, screeningID uint64, sold *bool) ([]model.Ticket, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Ticket{}
	for _, t := range s.db.tickets {
		if t.ScreeningID == screeningID && (sold == nil || t.Sold == *sold) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

type memSales struct{ db *memDB }

func (s memSales) SoldBetween(_ context.Context, from, to time.Time) ([]model.Sale, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Sale{}
	for _, t := range s.db.tickets {
		if !t.Sold || t.SoldAt.Before(from) || !t.SoldAt.Before(to) {
			continue
		}
		sc := s.db.joined(s.db.screenings[t.ScreeningID])
		out = append(out, model.Sale{
			TicketID: t.ID, ScreeningID: sc.ID, FilmID: sc.FilmID, FilmTitle: sc.FilmTitle,
			Price: t.Price, SoldAt: *t.SoldAt,
		})
	}
	slices.SortFunc(out, func(a, b model.Sale) int { return a.SoldAt.Compare(b.SoldAt) })
	return out, nil
}

type memLicenses struct{ db *memDB }

func (s memLicenses) GetByID(_ context.Context, id uint64) (*model.License, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	l, ok := s.db.licenses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (s memLicenses) ListEndingBetween(_ context.Context, from, to time.Time) ([]model.License, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.License{}
	for _, l := range s.db.licenses {
		if !l.EndDate.Before(from) && !l.EndDate.After(to) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.TicketSaleEvent
	err    error
}

func (p *recordingPublisher) PublishTicketSale(_ context.Context, evt queue.TicketSaleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

// env wires every service over one memDB and a fake clock set to
// 2030-06-01 12:00 UTC.
type env struct {
	db        *memDB
	clock     *clockwork.FakeClock
	publisher *recordingPublisher
	logs      *test.Hook
	films     *FilmService
	schedule  *ScreeningService
	tickets   *TicketService
	reports   *ReportService
	licenses  *LicenseService
}

var testNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func newEnv() *env {
	db := newMemDB()
	clock := clockwork.NewFakeClockAt(testNow)
	pub := &recordingPublisher{}
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	d := Deps{
		Tx:         memTx{db},
		Films:      memFilms{db},
		Screenings: memScreenings{db},
		Tickets:    memTickets{db},
		Sales:      memSales{db},
		Licenses:   memLicenses{db},
		Publisher:  pub,
		Clock:      clock,
		Location:   time.UTC,
		Log:        log,
	}
	return &env{
		db: db, clock: clock, publisher: pub, logs: hook,
		films:    NewFilmService(d),
		schedule: NewScreeningService(d),
		tickets:  NewTicketService(d),
		reports:  NewReportService(d),
		licenses: NewLicenseService(d),
	}
}

// seedFilm stores a film directly, bypassing validation.
func (e *env) seedFilm(title string, minutes int) model.Film {
	f := model.Film{Title: title, DurationMinutes: minutes}
	_ = memFilms{e.db}.Create(context.Background(), &f)
	return f
}

// seedScreening stores a screening directly, so past screenings can be
// created too.
func (e *env) seedScreening(filmID uint64, hall string, start time.Time, price string) model.Screening {
	sc := model.Screening{FilmID: filmID, Hall: hall, StartsAt: start, TicketPrice: decimal.RequireFromString(price)}
	_ = memScreenings{e.db}.Create(context.Background(), &sc)
	return sc
}

func (e *env) seedTicket(screeningID uint64, seat, price string) model.Ticket {
	t := model.Ticket{ScreeningID: screeningID, SeatNumber: seat, Price: decimal.RequireFromString(price)}
	_ = memTickets{e.db}.Create(context.Background(), &t)
	return t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func modelFilterAll() model.ScreeningFilter { return model.ScreeningFilter{} }
