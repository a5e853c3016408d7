package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/repository"
	"github.com/iliyamo/cinema-box-office/internal/service"
)

var errNotFoundRepo = repository.ErrNotFound

type stubFilms struct {
	created service.CreateFilmInput
	updated service.UpdateFilmInput
	film    *model.Film
	list    []model.Film
	active  bool
	deleted bool
	err     error
}

func (s *stubFilms) Create(_ context.Context, in service.CreateFilmInput) (*model.Film, error) {
	s.created = in
	return s.film, s.err
}
func (s *stubFilms) Get(context.Context, uint64) (*model.Film, error) { return s.film, s.err }
func (s *stubFilms) List(_ context.Context, activeOnly bool) ([]model.Film, error) {
	s.active = activeOnly
	return s.list, s.err
}
func (s *stubFilms) Update(_ context.Context, _ uint64, in service.UpdateFilmInput) (*model.Film, error) {
	s.updated = in
	return s.film, s.err
}
func (s *stubFilms) Delete(context.Context, uint64) (bool, error) { return s.deleted, s.err }

type stubScreenings struct {
	created   service.CreateScreeningInput
	filter    service.ListFilter
	date      string
	screening *model.Screening
	list      []model.Screening
	listings  []model.ScreeningListing
	deleted   bool
	err       error
}

func (s *stubScreenings) Create(_ context.Context, in service.CreateScreeningInput) (*model.Screening, error) {
	s.created = in
	return s.screening, s.err
}
func (s *stubScreenings) Update(context.Context, uint64, service.UpdateScreeningInput) (*model.Screening, error) {
	return s.screening, s.err
}
func (s *stubScreenings) Delete(context.Context, uint64) (bool, error) { return s.deleted, s.err }
func (s *stubScreenings) Get(context.Context, uint64) (*model.Screening, error) {
	return s.screening, s.err
}
func (s *stubScreenings) List(_ context.Context, f service.ListFilter) ([]model.Screening, error) {
	s.filter = f
	return s.list, s.err
}
func (s *stubScreenings) ListAvailable(context.Context) ([]model.ScreeningListing, error) {
	return s.listings, s.err
}
func (s *stubScreenings) ListForDate(_ context.Context, date string) ([]model.ScreeningListing, error) {
	s.date = date
	return s.listings, s.err
}

type stubTickets struct {
	issued  service.IssueTicketInput
	orderID *uint64
	sold    *bool
	ticket  *model.Ticket
	list    []model.Ticket
	seats   []string
	deleted bool
	err     error
}

func (s *stubTickets) Issue(_ context.Context, in service.IssueTicketInput) (*model.Ticket, error) {
	s.issued = in
	return s.ticket, s.err
}
func (s *stubTickets) Sell(_ context.Context, _ uint64, orderID *uint64) (*model.Ticket, error) {
	s.orderID = orderID
	return s.ticket, s.err
}
func (s *stubTickets) Cancel(context.Context, uint64) (*model.Ticket, error) { return s.ticket, s.err }
func (s *stubTickets) Delete(context.Context, uint64) (bool, error)          { return s.deleted, s.err }
func (s *stubTickets) Get(context.Context, uint64) (*model.Ticket, error)    { return s.ticket, s.err }
func (s *stubTickets) ListByScreening(_ context.Context, _ uint64, sold *bool) ([]model.Ticket, error) {
	s.sold = sold
	return s.list, s.err
}
func (s *stubTickets) AvailableSeats(context.Context, uint64) ([]string, error) {
	return s.seats, s.err
}

type stubReports struct {
	limit, days int
	revenue     *model.DailyRevenue
	occupancy   *model.ScreeningOccupancy
	popular     []model.PopularFilm
	expiring    []model.ExpiringLicense
	err         error
}

func (s *stubReports) DailyRevenue(context.Context, string) (*model.DailyRevenue, error) {
	return s.revenue, s.err
}
func (s *stubReports) Occupancy(context.Context, uint64) (*model.ScreeningOccupancy, error) {
	return s.occupancy, s.err
}
func (s *stubReports) PopularFilms(_ context.Context, limit, days int) ([]model.PopularFilm, error) {
	s.limit, s.days = limit, days
	return s.popular, s.err
}
func (s *stubReports) Expiring(_ context.Context, days int) ([]model.ExpiringLicense, error) {
	s.days = days
	return s.expiring, s.err
}

type memOperators map[uint64]model.Operator

func (m memOperators) GetByEmail(_ context.Context, email string) (model.Operator, error) {
	for _, op := range m {
		if op.Email == email {
			return op, nil
		}
	}
	return model.Operator{}, errNotFoundRepo
}

func (m memOperators) GetByID(_ context.Context, id uint64) (model.Operator, error) {
	op, ok := m[id]
	if !ok {
		return model.Operator{}, errNotFoundRepo
	}
	return op, nil
}

type memToken struct {
	operatorID uint64
	exp        time.Time
	revoked    bool
}

type memTokens map[string]*memToken

func (m memTokens) StoreRefresh(_ context.Context, opID uint64, hash string, exp time.Time) error {
	m[hash] = &memToken{operatorID: opID, exp: exp}
	return nil
}

func (m memTokens) ValidateRefresh(_ context.Context, hash string, now time.Time) (uint64, error) {
	t, ok := m[hash]
	if !ok || t.revoked || now.After(t.exp) {
		return 0, errNotFoundRepo
	}
	return t.operatorID, nil
}

func (m memTokens) RevokeByHash(_ context.Context, hash string) error {
	if t, ok := m[hash]; ok {
		t.revoked = true
	}
	return nil
}

func (m memTokens) RevokeAllForOperator(_ context.Context, opID uint64) error {
	for _, t := range m {
		if t.operatorID == opID {
			t.revoked = true
		}
	}
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
