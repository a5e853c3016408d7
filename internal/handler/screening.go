package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/service"
)

// ScreeningService is the schedule used by ScreeningHandler.
type ScreeningService interface {
	Create(ctx context.Context, in service.CreateScreeningInput) (*model.Screening, error)
	Update(ctx context.Context, id uint64, in service.UpdateScreeningInput) (*model.Screening, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	Get(ctx context.Context, id uint64) (*model.Screening, error)
	List(ctx context.Context, f service.ListFilter) ([]model.Screening, error)
	ListAvailable(ctx context.Context) ([]model.ScreeningListing, error)
	ListForDate(ctx context.Context, date string) ([]model.ScreeningListing, error)
}

// SeatService lists a screening's tickets and free seats.
type SeatService interface {
	ListByScreening(ctx context.Context, screeningID uint64, sold *bool) ([]model.Ticket, error)
	AvailableSeats(ctx context.Context, screeningID uint64) ([]string, error)
}

type ScreeningHandler struct {
	Screenings ScreeningService
	Seats      SeatService
}

func NewScreeningHandler(screenings ScreeningService, seats SeatService) *ScreeningHandler {
	if screenings == nil || seats == nil {
		panic("nil service passed to NewScreeningHandler")
	}
	return &ScreeningHandler{Screenings: screenings, Seats: seats}
}

type createScreeningReq struct {
	FilmID      uint64          `json:"film_id" validate:"required"`
	StartsAt    string          `json:"starts_at" validate:"required"`
	Hall        string          `json:"hall" validate:"required"`
	TicketPrice decimal.Decimal `json:"ticket_price"`
}

type updateScreeningReq struct {
	StartsAt    *string          `json:"starts_at"`
	Hall        *string          `json:"hall"`
	TicketPrice *decimal.Decimal `json:"ticket_price"`
}

// List handles GET /v1/screenings?film_id=&from=&to=.
func (h *ScreeningHandler) List(c echo.Context) error {
	var f service.ListFilter
	if s := c.QueryParam("film_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid film_id"})
		}
		f.FilmID = id
	}
	f.From = c.QueryParam("from")
	f.To = c.QueryParam("to")

	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Screenings.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Available handles GET /v1/screenings/available.
func (h *ScreeningHandler) Available(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Screenings.ListAvailable(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// ForDate handles GET /v1/screenings/date/:date.
func (h *ScreeningHandler) ForDate(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Screenings.ListForDate(ctx, c.Param("date"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ScreeningHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sc, err := h.Screenings.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sc)
}

func (h *ScreeningHandler) Create(c echo.Context) error {
	var req createScreeningReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sc, err := h.Screenings.Create(ctx, service.CreateScreeningInput{
		FilmID:      req.FilmID,
		StartsAt:    req.StartsAt,
		Hall:        req.Hall,
		TicketPrice: req.TicketPrice,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, sc)
}

func (h *ScreeningHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req updateScreeningReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sc, err := h.Screenings.Update(ctx, id, service.UpdateScreeningInput{
		StartsAt:    req.StartsAt,
		Hall:        req.Hall,
		TicketPrice: req.TicketPrice,
	})
	if err != nil {
		return fail(c, err)
	}
	if sc == nil {
		return notFound(c, "screening", id)
	}
	return c.JSON(http.StatusOK, sc)
}

// Delete removes a screening together with its unsold tickets.
func (h *ScreeningHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Screenings.Delete(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !ok {
		return notFound(c, "screening", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// Tickets handles GET /v1/screenings/:id/tickets?sold=.
func (h *ScreeningHandler) Tickets(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	sold, err := queryBool(c, "sold")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tickets, err := h.Seats.ListByScreening(ctx, id, sold)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tickets)
}

// AvailableSeats handles GET /v1/screenings/:id/seats/available.
func (h *ScreeningHandler) AvailableSeats(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	seats, err := h.Seats.AvailableSeats(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"screening_id": id, "seats": seats})
}
