package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// probePaths are polled by orchestrators and scrapers and only logged at debug
var probePaths = []string{"/health", "/metrics"}

// RequestLogger logs every request after it is handled. Failed requests log at warn.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			attrs := []any{
				"method", req.Method,
				"path", c.Path(),
				"status", status,
				"duration", time.Since(start),
				"ip", c.RealIP(),
			}
			switch {
			case err != nil || status >= http.StatusInternalServerError:
				if err != nil {
					attrs = append(attrs, "error", err)
				}
				logger.Warn("request failed", attrs...)
			case isProbe(req.Method, c.Path()):
				logger.Debug("request handled", attrs...)
			default:
				logger.Info("request handled", attrs...)
			}
			return err
		}
	}
}

func isProbe(method, path string) bool {
	if method != http.MethodGet {
		return false
	}
	for _, prefix := range probePaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
