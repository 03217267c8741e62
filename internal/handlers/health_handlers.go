package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const checkTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe can check
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// JobStatusProvider reports scheduler state for the health endpoint
type JobStatusProvider interface {
	GetJobStatus() map[string]interface{}
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db        Pinger
	redis     Pinger
	jobs      JobStatusProvider
	gatherer  prometheus.Gatherer
	startedAt time.Time
	version   string
}

// NewHealthHandlers creates the ops handlers. redis and jobs may be nil.
func NewHealthHandlers(db Pinger, redis Pinger, jobs JobStatusProvider, gatherer prometheus.Gatherer, version string) *HealthHandlers {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &HealthHandlers{
		db:        db,
		redis:     redis,
		jobs:      jobs,
		gatherer:  gatherer,
		startedAt: time.Now(),
		version:   version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
	Jobs      map[string]interface{} `json:"jobs,omitempty"`
}

// ReadinessStatus reports each dependency check
type ReadinessStatus struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Register mounts the ops routes on e
func (h *HealthHandlers) Register(e *echo.Echo) {
	e.GET("/health", h.LivenessCheck)
	e.GET("/health/ready", h.ReadinessCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}

// LivenessCheck reports that the process is running
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	status := &HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startedAt).Truncate(time.Second).String(),
		Version:   h.version,
	}
	if h.jobs != nil {
		status.Jobs = h.jobs.GetJobStatus()
	}
	return c.JSON(http.StatusOK, status)
}

// ReadinessCheck returns 503 while the database or redis is unreachable
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
	defer cancel()

	status := &ReadinessStatus{
		Status:   "ready",
		Services: make(map[string]string),
	}

	status.Services["database"] = check(ctx, h.db)
	if h.redis != nil {
		status.Services["redis"] = check(ctx, h.redis)
	}

	for _, state := range status.Services {
		if state != "healthy" {
			status.Status = "not_ready"
			return c.JSON(http.StatusServiceUnavailable, status)
		}
	}
	return c.JSON(http.StatusOK, status)
}

func check(ctx context.Context, p Pinger) string {
	if p == nil {
		return "unhealthy"
	}
	if err := p.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}
