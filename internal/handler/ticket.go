package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/service"
)

// TicketService is the seat inventory used by TicketHandler.
type TicketService interface {
	Issue(ctx context.Context, in service.IssueTicketInput) (*model.Ticket, error)
	Sell(ctx context.Context, id uint64, orderID *uint64) (*model.Ticket, error)
	Cancel(ctx context.Context, id uint64) (*model.Ticket, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	Get(ctx context.Context, id uint64) (*model.Ticket, error)
}

type TicketHandler struct {
	Tickets TicketService
}

func NewTicketHandler(tickets TicketService) *TicketHandler {
	if tickets == nil {
		panic("nil service passed to NewTicketHandler")
	}
	return &TicketHandler{Tickets: tickets}
}

type issueTicketReq struct {
	ScreeningID uint64           `json:"screening_id" validate:"required"`
	SeatNumber  string           `json:"seat_number" validate:"required"`
	Price       *decimal.Decimal `json:"price"`
}

type sellTicketReq struct {
	OrderID *uint64 `json:"order_id" validate:"omitempty,min=1"`
}

// Issue handles POST /v1/tickets.  Without a price the ticket takes the
// screening's ticket price.
func (h *TicketHandler) Issue(c echo.Context) error {
	var req issueTicketReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.Issue(ctx, service.IssueTicketInput{
		ScreeningID: req.ScreeningID,
		SeatNumber:  req.SeatNumber,
		Price:       req.Price,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TicketHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Sell handles POST /v1/tickets/:id/sell with an optional order id.
func (h *TicketHandler) Sell(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req sellTicketReq
	if err := bindOptional(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.Sell(ctx, id, req.OrderID)
	if err != nil {
		return fail(c, err)
	}
	if t == nil {
		return notFound(c, "ticket", id)
	}
	return c.JSON(http.StatusOK, t)
}

// Cancel handles POST /v1/tickets/:id/cancel.
func (h *TicketHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.Cancel(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if t == nil {
		return notFound(c, "ticket", id)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Tickets.Delete(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !ok {
		return notFound(c, "ticket", id)
	}
	return c.NoContent(http.StatusNoContent)
}
