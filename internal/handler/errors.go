package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrodesk/internal/logging"
	"github.com/iliyamo/agrodesk/internal/service"
	"github.com/iliyamo/agrodesk/internal/storage"
)

// dbTimeout bounds the database work of one request.
const dbTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// respondError maps service errors onto HTTP statuses. Unexpected errors
// are logged and answered with a generic 500.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, storage.ErrUnsupportedType):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrReportNotFound):
		return errorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidRefresh):
		return errorJSON(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNoArea):
		return errorJSON(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrEmailExists):
		return errorJSON(c, http.StatusConflict, "email already exists")
	}
	logging.FromContext(c.Request().Context()).Error("request failed",
		slog.String("path", c.Path()), slog.Any("err", err))
	return errorJSON(c, http.StatusInternalServerError, "internal error")
}
