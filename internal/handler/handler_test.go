package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/service"
)

func errorBody(t *testing.T, body []byte) string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.Unmarshal(body, &m))
	return m["error"]
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("bad: %w", service.ErrValidation), http.StatusBadRequest},
		{service.ErrSeatSold, http.StatusConflict},
		{service.ErrHallOverlap, http.StatusConflict},
		{fmt.Errorf("film 1: %w", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("get: %w: %w", service.ErrStorage, errors.New("conn refused")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestFilmCreateAndValidation(t *testing.T) {
	films := &stubFilms{film: &model.Film{ID: 3, Title: "Arrival", DurationMinutes: 116}}
	h := NewFilmHandler(films)
	e := newEcho()
	e.POST("/films", h.Create)

	rec := do(e, http.MethodPost, "/films", `{"title":"Arrival","duration_minutes":116,"license_id":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Arrival", films.created.Title)
	assert.Equal(t, 116, films.created.DurationMinutes)
	require.NotNil(t, films.created.LicenseID)
	assert.Equal(t, uint64(2), *films.created.LicenseID)

	rec = do(e, http.MethodPost, "/films", `{"duration_minutes":116}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title is required", errorBody(t, rec.Body.Bytes()))

	rec = do(e, http.MethodPost, "/films", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	films.err = service.ErrDuplicateTitle
	rec = do(e, http.MethodPost, "/films", `{"title":"Arrival","duration_minutes":116}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "film title already exists", errorBody(t, rec.Body.Bytes()))
}

func TestFilmUpdateMissingAndDelete(t *testing.T) {
	films := &stubFilms{}
	h := NewFilmHandler(films)
	e := newEcho()
	e.PATCH("/films/:id", h.Update)
	e.DELETE("/films/:id", h.Delete)
	e.GET("/films", h.List)

	rec := do(e, http.MethodPatch, "/films/9", `{"duration_minutes":100}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "film 9 not found", errorBody(t, rec.Body.Bytes()))
	require.NotNil(t, films.updated.DurationMinutes)
	assert.Nil(t, films.updated.Title)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/films/9", "").Code)
	films.deleted = true
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, "/films/9", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodDelete, "/films/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodDelete, "/films/0", "").Code)

	films.err = fmt.Errorf("film has 2 scheduled screenings: %w", service.ErrFilmHasFutureScreenings)
	rec = do(e, http.MethodDelete, "/films/9", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	films.err = nil
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/films?active=true", "").Code)
	assert.True(t, films.active)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/films?active=maybe", "").Code)
}

func TestScreeningList(t *testing.T) {
	sc := &stubScreenings{list: []model.Screening{{ID: 1, Hall: "Hall 1"}}}
	h := NewScreeningHandler(sc, &stubTickets{})
	e := newEcho()
	e.GET("/screenings", h.List)
	e.GET("/screenings/date/:date", h.ForDate)

	rec := do(e, http.MethodGet, "/screenings?film_id=4&from=2030-06-01&to=2030-06-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ListFilter{FilmID: 4, From: "2030-06-01", To: "2030-06-02"}, sc.filter)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/screenings?film_id=x", "").Code)

	sc.err = fmt.Errorf("invalid date: %w", service.ErrValidation)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/screenings/date/nope", "").Code)
	assert.Equal(t, "nope", sc.date)
}

func TestScreeningCreate(t *testing.T) {
	sc := &stubScreenings{screening: &model.Screening{ID: 5}}
	h := NewScreeningHandler(sc, &stubTickets{})
	e := newEcho()
	e.POST("/screenings", h.Create)

	rec := do(e, http.MethodPost, "/screenings", `{"film_id":1,"starts_at":"2030-06-02 18:00","hall":"Hall 1","ticket_price":"12.50"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2030-06-02 18:00", sc.created.StartsAt)
	assert.True(t, decimal.RequireFromString("12.5").Equal(sc.created.TicketPrice))

	rec = do(e, http.MethodPost, "/screenings", `{"film_id":1,"hall":"Hall 1","ticket_price":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "starts_at is required", errorBody(t, rec.Body.Bytes()))

	sc.err = service.ErrHallOverlap
	rec = do(e, http.MethodPost, "/screenings", `{"film_id":1,"starts_at":"2030-06-02 18:00","hall":"Hall 1","ticket_price":10}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestScreeningTicketsAndSeats(t *testing.T) {
	tickets := &stubTickets{seats: []string{"A1", "A2"}}
	h := NewScreeningHandler(&stubScreenings{}, tickets)
	e := newEcho()
	e.GET("/screenings/:id/tickets", h.Tickets)
	e.GET("/screenings/:id/seats/available", h.AvailableSeats)

	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/screenings/2/tickets?sold=false", "").Code)
	require.NotNil(t, tickets.sold)
	assert.False(t, *tickets.sold)

	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/screenings/2/tickets", "").Code)
	assert.Nil(t, tickets.sold)

	rec := do(e, http.MethodGet, "/screenings/2/seats/available", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"screening_id":2,"seats":["A1","A2"]}`, rec.Body.String())
}

func TestTicketLifecycleEndpoints(t *testing.T) {
	soldAt := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	tickets := &stubTickets{ticket: &model.Ticket{ID: 8, ScreeningID: 2, SeatNumber: "B4", Sold: true, SoldAt: &soldAt}}
	h := NewTicketHandler(tickets)
	e := newEcho()
	e.POST("/tickets", h.Issue)
	e.POST("/tickets/:id/sell", h.Sell)
	e.POST("/tickets/:id/cancel", h.Cancel)
	e.DELETE("/tickets/:id", h.Delete)

	rec := do(e, http.MethodPost, "/tickets", `{"screening_id":2,"seat_number":"B4"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, tickets.issued.Price)

	do(e, http.MethodPost, "/tickets", `{"screening_id":2,"seat_number":"B5","price":9.99}`)
	require.NotNil(t, tickets.issued.Price)
	assert.Equal(t, "9.99", tickets.issued.Price.String())

	rec = do(e, http.MethodPost, "/tickets/8/sell", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, tickets.orderID)

	rec = do(e, http.MethodPost, "/tickets/8/sell", `{"order_id":77}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, tickets.orderID)
	assert.Equal(t, uint64(77), *tickets.orderID)

	tickets.err = service.ErrTicketAlreadySold
	rec = do(e, http.MethodPost, "/tickets/8/sell", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ticket is already sold", errorBody(t, rec.Body.Bytes()))

	tickets.err, tickets.ticket = nil, nil
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/tickets/8/cancel", "").Code)

	tickets.err = service.ErrTicketSoldDelete
	assert.Equal(t, http.StatusConflict, do(e, http.MethodDelete, "/tickets/8", "").Code)
}

func TestSellWithoutContentLength(t *testing.T) {
	tickets := &stubTickets{ticket: &model.Ticket{ID: 8, ScreeningID: 2, SeatNumber: "B4", Sold: true}}
	e := newEcho()
	e.POST("/tickets/:id/sell", NewTicketHandler(tickets).Sell)

	chunked := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/tickets/8/sell", io.NopCloser(strings.NewReader(body)))
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := chunked("")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, tickets.orderID)

	rec = chunked(" \n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, tickets.orderID)

	rec = chunked(`{"order_id":42}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, tickets.orderID)
	assert.Equal(t, uint64(42), *tickets.orderID)

	rec = chunked(`{"order_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStorageAndUnknownErrors(t *testing.T) {
	tickets := &stubTickets{err: fmt.Errorf("get ticket: %w: %w", service.ErrStorage, errors.New("dial tcp"))}
	h := NewTicketHandler(tickets)
	e := newEcho()
	e.GET("/tickets/:id", h.Get)

	rec := do(e, http.MethodGet, "/tickets/1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, errorBody(t, rec.Body.Bytes()), "storage failure")

	tickets.err = errors.New("unexpected")
	rec = do(e, http.MethodGet, "/tickets/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", errorBody(t, rec.Body.Bytes()))
}

func TestReports(t *testing.T) {
	reports := &stubReports{
		revenue: &model.DailyRevenue{Date: "2030-06-01", TicketsSold: 2,
			TotalRevenue: decimal.RequireFromString("25.50"), AverageTicketPrice: decimal.RequireFromString("12.75")},
	}
	h := NewReportHandler(reports, reports)
	e := newEcho()
	e.GET("/reports/revenue/:date", h.Revenue)
	e.GET("/reports/popular", h.Popular)
	e.GET("/licenses/expiring", h.ExpiringLicenses)

	rec := do(e, http.MethodGet, "/reports/revenue/2030-06-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_revenue":"25.5"`)

	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/reports/popular", "").Code)
	assert.Equal(t, 5, reports.limit)
	assert.Equal(t, 30, reports.days)
	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/reports/popular?limit=3&days=7", "").Code)
	assert.Equal(t, 3, reports.limit)
	assert.Equal(t, 7, reports.days)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/reports/popular?limit=x", "").Code)

	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/licenses/expiring?days=10", "").Code)
	assert.Equal(t, 10, reports.days)
}
