package middleware

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-archive/internal/utils"
)

// userID returns the authenticated user's id as a string, or "guest" when
// the request carries no verified token.  Global middleware runs before the
// route-level JWTAuth, so without a context value the bearer token is
// verified here with secret.
func userID(c echo.Context, secret string) string {
	if id, ok := c.Get(UserIDKey).(int64); ok && id > 0 {
		return strconv.FormatInt(id, 10)
	}
	if secret == "" {
		return "guest"
	}
	raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok {
		return "guest"
	}
	claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
	if err != nil || claims.UserID <= 0 {
		return "guest"
	}
	return strconv.FormatInt(claims.UserID, 10)
}
