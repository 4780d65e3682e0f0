package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrodesk/internal/utils"
)

// currentUserID returns the authenticated caller as a string for use in
// Redis keys, or "anon" before JWTAuth ran or on public routes.
func currentUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

// bearerUserID identifies the caller for middleware registered ahead of
// JWTAuth. It verifies the bearer token itself; a missing or invalid
// token is "anon".
func bearerUserID(c echo.Context, secret string) string {
	if uid := currentUserID(c); uid != "anon" || secret == "" {
		return uid
	}
	raw, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return "anon"
	}
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return "anon"
	}
	id, err := claims.UserID()
	if err != nil || id == 0 {
		return "anon"
	}
	return strconv.FormatUint(id, 10)
}
