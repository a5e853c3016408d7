package middleware

import (
	"net/http"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxOperatorID = "operator_id"
	CtxRole       = "role"
)

// JWTAuth validates a Bearer access token and stores the operator id
// (uint64) and role (string) in the request context.  Expiry is
// checked against clock.
func JWTAuth(secret string, clock clockwork.Clock) echo.MiddlewareFunc {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "), clock.Now())
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id, err := claims.OperatorID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			c.Set(CtxOperatorID, id)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
