package middleware

import (
	"github.com/labstack/echo/v4"
)

// VersionHeaderName carries the running build on every ops response
const VersionHeaderName = "X-Slotwise-Version"

// VersionHeader adds version information to response headers
func VersionHeader(version string) echo.MiddlewareFunc {
	if version == "" {
		version = "dev"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(VersionHeaderName, version)
			return next(c)
		}
	}
}
