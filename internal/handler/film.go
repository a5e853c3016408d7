package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/service"
)

// FilmService is the film catalogue used by FilmHandler.
type FilmService interface {
	Create(ctx context.Context, in service.CreateFilmInput) (*model.Film, error)
	Get(ctx context.Context, id uint64) (*model.Film, error)
	List(ctx context.Context, activeOnly bool) ([]model.Film, error)
	Update(ctx context.Context, id uint64, in service.UpdateFilmInput) (*model.Film, error)
	Delete(ctx context.Context, id uint64) (bool, error)
}

type FilmHandler struct {
	Films FilmService
}

func NewFilmHandler(films FilmService) *FilmHandler {
	if films == nil {
		panic("nil service passed to NewFilmHandler")
	}
	return &FilmHandler{Films: films}
}

type createFilmReq struct {
	LicenseID       *uint64 `json:"license_id" validate:"omitempty,min=1"`
	Title           string  `json:"title" validate:"required,max=200"`
	DurationMinutes int     `json:"duration_minutes"`
	Description     string  `json:"description" validate:"max=2000"`
}

type updateFilmReq struct {
	LicenseID       *uint64 `json:"license_id" validate:"omitempty,min=1"`
	Title           *string `json:"title" validate:"omitempty,max=200"`
	DurationMinutes *int    `json:"duration_minutes"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
}

// List handles GET /v1/films?active=true.
func (h *FilmHandler) List(c echo.Context) error {
	active, err := queryBool(c, "active")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	films, err := h.Films.List(ctx, active != nil && *active)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, films)
}

func (h *FilmHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Films.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *FilmHandler) Create(c echo.Context) error {
	var req createFilmReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Films.Create(ctx, service.CreateFilmInput{
		LicenseID:       req.LicenseID,
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		Description:     req.Description,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

// Update handles PATCH /v1/films/:id; absent fields stay unchanged.
func (h *FilmHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req updateFilmReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Films.Update(ctx, id, service.UpdateFilmInput{
		LicenseID:       req.LicenseID,
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		Description:     req.Description,
	})
	if err != nil {
		return fail(c, err)
	}
	if f == nil {
		return notFound(c, "film", id)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *FilmHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Films.Delete(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !ok {
		return notFound(c, "film", id)
	}
	return c.NoContent(http.StatusNoContent)
}
