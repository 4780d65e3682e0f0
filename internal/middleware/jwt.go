package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrodesk/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
	RolesKey  = "roles"
)

// BearerToken extracts the token from an "Authorization: Bearer ..."
// header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}

// JWTAuth validates the bearer access token and stores its claims, the
// numeric user id and the role set in the echo context. Missing,
// malformed, expired or non-HMAC tokens are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, _ := claims.UserID() // ParseAccessToken already checked it

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, uid)
			c.Set(RolesKey, claims.RoleSet())
			return next(c)
		}
	}
}

// Claims returns the claims stored by JWTAuth.
func Claims(c echo.Context) (*utils.Claims, bool) {
	cl, ok := c.Get(ClaimsKey).(*utils.Claims)
	return cl, ok && cl != nil
}

// UserID returns the caller id stored by JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(UserIDKey).(uint64)
	return id, ok && id != 0
}
