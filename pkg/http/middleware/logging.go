package middleware

import (
	"time"

	applogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests. Falls back to no-op when no logger
// is configured (tests).
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			if l == nil {
				return err
			}
			req := c.Request()
			res := c.Response()
			latency := time.Since(start)

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("path", c.Path()),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("duration_ms", latency),
			}
			if res.Status >= 500 {
				l.Error("http request failed", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return err
		}
	}
}
