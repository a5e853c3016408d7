package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// OperatorID returns the authenticated operator id, or false on
// anonymous requests.
func OperatorID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxOperatorID).(uint64)
	return id, ok && id != 0
}

// identity names the caller for rate limit keys: the operator id when
// authenticated, "anon" otherwise.
func identity(c echo.Context) string {
	if id, ok := OperatorID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
