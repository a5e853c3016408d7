// Package router registers the HTTP routes of the box office API.
package router

import (
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-box-office/internal/config"
	"github.com/iliyamo/cinema-box-office/internal/handler"
	"github.com/iliyamo/cinema-box-office/internal/middleware"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

// Deps carries what route registration needs.  Redis may be nil, in
// which case the response cache and the rate limiter pass through.
type Deps struct {
	JWTSecret  string
	Clock      clockwork.Clock
	Redis      *redis.Client
	Cache      config.CacheConfig
	RateLimit  config.RateLimitConfig
	Log        logrus.FieldLogger
	DB         handler.Pinger
	Auth       *handler.AuthHandler
	Films      *handler.FilmHandler
	Screenings *handler.ScreeningHandler
	Tickets    *handler.TicketHandler
	Reports    *handler.ReportHandler
}

// New builds an echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.RequestLogger(d.Log))
	Register(e, d)
	return e
}

// Register mounts health checks and the /v1 API on e.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	if d.DB != nil {
		e.GET("/readyz", handler.Ready(d.DB))
	}

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Clock, d.Log)
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)
	admin := middleware.RequireRole(model.RoleAdmin)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleCashier)

	// Sessions: no access token needed.
	auth := e.Group("/v1/auth", limit)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)

	// Everything else requires an operator token; the rate limit runs
	// after authentication so buckets are per operator.
	v1 := e.Group("/v1", middleware.JWTAuth(d.JWTSecret, d.Clock), limit, staff)
	v1.GET("/me", d.Auth.Me)

	v1.GET("/films", d.Films.List)
	v1.GET("/films/:id", d.Films.Get)
	v1.POST("/films", d.Films.Create, admin)
	v1.PATCH("/films/:id", d.Films.Update, admin)
	v1.DELETE("/films/:id", d.Films.Delete, admin)

	v1.GET("/screenings", d.Screenings.List)
	v1.GET("/screenings/available", d.Screenings.Available)
	v1.GET("/screenings/date/:date", d.Screenings.ForDate)
	v1.GET("/screenings/:id", d.Screenings.Get)
	v1.GET("/screenings/:id/tickets", d.Screenings.Tickets)
	v1.GET("/screenings/:id/seats/available", d.Screenings.AvailableSeats)
	v1.POST("/screenings", d.Screenings.Create, admin)
	v1.PATCH("/screenings/:id", d.Screenings.Update, admin)
	v1.DELETE("/screenings/:id", d.Screenings.Delete, admin)

	v1.POST("/tickets", d.Tickets.Issue)
	v1.GET("/tickets/:id", d.Tickets.Get)
	v1.POST("/tickets/:id/sell", d.Tickets.Sell)
	v1.POST("/tickets/:id/cancel", d.Tickets.Cancel)
	v1.DELETE("/tickets/:id", d.Tickets.Delete)

	reports := v1.Group("/reports", cache)
	reports.GET("/revenue/:date", d.Reports.Revenue)
	reports.GET("/occupancy/:id", d.Reports.Occupancy)
	reports.GET("/popular", d.Reports.Popular)
	v1.GET("/licenses/expiring", d.Reports.ExpiringLicenses, cache)
}
