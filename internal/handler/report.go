package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ReportService derives revenue, occupancy and popularity figures.
type ReportService interface {
	DailyRevenue(ctx context.Context, date string) (*model.DailyRevenue, error)
	Occupancy(ctx context.Context, screeningID uint64) (*model.ScreeningOccupancy, error)
	PopularFilms(ctx context.Context, limit, days int) ([]model.PopularFilm, error)
}

// LicenseService reports licenses running out.
type LicenseService interface {
	Expiring(ctx context.Context, withinDays int) ([]model.ExpiringLicense, error)
}

// ReportHandler serves the read-only reporting endpoints.
type ReportHandler struct {
	Reports  ReportService
	Licenses LicenseService
}

func NewReportHandler(reports ReportService, licenses LicenseService) *ReportHandler {
	if reports == nil || licenses == nil {
		panic("nil service passed to NewReportHandler")
	}
	return &ReportHandler{Reports: reports, Licenses: licenses}
}

const (
	defaultPopularLimit = 5
	defaultPopularDays  = 30
	defaultExpiryDays   = 30
)

// Revenue handles GET /v1/reports/revenue/:date.
func (h *ReportHandler) Revenue(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rep, err := h.Reports.DailyRevenue(ctx, c.Param("date"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// Occupancy handles GET /v1/reports/occupancy/:id.
func (h *ReportHandler) Occupancy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rep, err := h.Reports.Occupancy(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// Popular handles GET /v1/reports/popular?limit=&days=.
func (h *ReportHandler) Popular(c echo.Context) error {
	limit, err := queryInt(c, "limit", defaultPopularLimit)
	if err != nil {
		return fail(c, err)
	}
	days, err := queryInt(c, "days", defaultPopularDays)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	films, err := h.Reports.PopularFilms(ctx, limit, days)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, films)
}

// ExpiringLicenses handles GET /v1/licenses/expiring?days=.
func (h *ReportHandler) ExpiringLicenses(c echo.Context) error {
	days, err := queryInt(c, "days", defaultExpiryDays)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Licenses.Expiring(ctx, days)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
