package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrodesk/internal/logging"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = echo.HeaderXRequestID

// RequestLogger tags every request with an id (reusing an upstream
// X-Request-ID when present), stores a logger carrying that id in the
// request context and logs one line per request when it completes.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	if base == nil {
		base = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			rid := req.Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, rid)

			log := base.With(slog.String("request_id", rid))
			c.SetRequest(req.WithContext(logging.WithLogger(req.Context(), log)))

			err := next(c)
			if err != nil {
				c.Error(err) // let echo write the response so status is final
			}

			status := c.Response().Status
			attrs := []any{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Duration("latency", time.Since(start)),
				slog.String("ip", c.RealIP()),
			}
			if uid := currentUserID(c); uid != "anon" {
				attrs = append(attrs, slog.String("user_id", uid))
			}
			switch {
			case status >= 500:
				log.Error("request", attrs...)
			case status >= 400:
				log.Warn("request", attrs...)
			default:
				log.Info("request", attrs...)
			}
			return nil
		}
	}
}
