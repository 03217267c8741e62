package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newEcho(buf *bytes.Buffer) *echo.Echo {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	e := echo.New()
	e.Use(RequestLogger(logger), VersionHeader("1.2.3"))
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/jobs/status", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "down")
	})
	return e
}

func serve(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestVersionHeader(t *testing.T) {
	var buf bytes.Buffer
	rec := serve(newEcho(&buf), "/jobs/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.2.3", rec.Header().Get(VersionHeaderName))
}

func TestVersionHeader_DefaultsToDev(t *testing.T) {
	e := echo.New()
	e.Use(VersionHeader(""))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, "/")

	assert.Equal(t, "dev", rec.Header().Get(VersionHeaderName))
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		contains []string
		empty    bool
	}{
		{name: "regular request at info", path: "/jobs/status", contains: []string{"level=INFO", "path=/jobs/status", "status=200"}},
		{name: "probe below info is dropped", path: "/health", empty: true},
		{name: "http error at warn", path: "/boom", contains: []string{"level=WARN", "status=503", "request failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			serve(newEcho(&buf), tt.path)

			if tt.empty {
				assert.Empty(t, buf.String())
				return
			}
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}
