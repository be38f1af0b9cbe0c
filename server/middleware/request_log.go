package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/feeta/server/internal/observability"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = echo.HeaderXRequestID

// RequestLogger attaches a RequestContext to each request and logs its outcome.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rc := observability.NewRequestContext(logger, req.Header.Get(RequestIDHeader), c.Path())
			c.Response().Header().Set(RequestIDHeader, rc.RequestID)
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), rc)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.Int(observability.LogFieldStatus, c.Response().Status),
				slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
			}
			if err != nil {
				rc.Error("request failed", err, attrs...)
			} else {
				rc.Info("request completed", attrs...)
			}
			return nil
		}
	}
}
