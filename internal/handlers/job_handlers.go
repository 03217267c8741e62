package handlers

import (
	"net/http"

	"slotwise/internal/caching"
	"slotwise/internal/models"

	"github.com/labstack/echo/v4"
)

// RepartitionJob is the scheduler state the job endpoints read
type RepartitionJob interface {
	JobStatusProvider
	LastSummary() *models.RepartitionSummary
}

type JobHandlers struct {
	job   RepartitionJob
	cache caching.SummaryCache
}

// NewJobHandlers creates the job handlers. cache may be nil.
func NewJobHandlers(job RepartitionJob, cache caching.SummaryCache) *JobHandlers {
	return &JobHandlers{
		job:   job,
		cache: cache,
	}
}

// Register mounts the read-only job routes on e
func (h *JobHandlers) Register(e *echo.Echo) {
	g := e.Group("/jobs")
	g.GET("/status", h.GetJobStatus)
	g.GET("/repartition/last", h.GetLastSummary)
}

// GetJobStatus handler
func (h *JobHandlers) GetJobStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.job.GetJobStatus())
}

// GetLastSummary returns the latest run of this process, else the one cached by any replica
func (h *JobHandlers) GetLastSummary(c echo.Context) error {
	if summary := h.job.LastSummary(); summary != nil {
		return c.JSON(http.StatusOK, summary)
	}
	if h.cache == nil {
		return echo.NewHTTPError(http.StatusNotFound, "No repartition run recorded yet")
	}

	summary, err := h.cache.GetLastSummary(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read last repartition summary")
	}
	if summary == nil {
		return echo.NewHTTPError(http.StatusNotFound, "No repartition run recorded yet")
	}
	return c.JSON(http.StatusOK, summary)
}
