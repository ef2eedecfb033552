package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-archive/internal/utils"
)

// Context keys set by JWTAuth.
const (
	UserIDKey = "user_id"
	ClaimsKey = "claims"
)

// JWTAuth validates the Bearer access token of a request.  On success the
// user id (int64) and the full *utils.Claims are stored in the context under
// UserIDKey and ClaimsKey; otherwise the request ends with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "message": "Missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "message": "Invalid or expired token"})
			}
			c.Set(UserIDKey, claims.UserID)
			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}
