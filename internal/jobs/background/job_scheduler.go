package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"slotwise/internal/caching"
	"slotwise/internal/models"
	"slotwise/internal/services"

	"github.com/go-co-op/gocron/v2"
)

const RepartitionJobName = "shelf-level-repartition"

// JobScheduler runs the periodic repartition of every eligible location
type JobScheduler struct {
	scheduler      gocron.Scheduler
	repartitionSvc services.RepartitionService
	summaryCache   caching.SummaryCache
	interval       time.Duration
	dryRun         bool
	logger         *slog.Logger

	mu   sync.RWMutex
	jobs map[string]gocron.Job
	last *models.RepartitionSummary
}

type SchedulerOption func(*JobScheduler)

// WithSummaryCache stores every run summary in cache
func WithSummaryCache(cache caching.SummaryCache) SchedulerOption {
	return func(js *JobScheduler) {
		js.summaryCache = cache
	}
}

func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(js *JobScheduler) {
		if logger != nil {
			js.logger = logger
		}
	}
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(repartitionSvc services.RepartitionService, interval time.Duration, dryRun bool, opts ...SchedulerOption) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler:      scheduler,
		repartitionSvc: repartitionSvc,
		interval:       interval,
		dryRun:         dryRun,
		logger:         slog.Default(),
		jobs:           make(map[string]gocron.Job),
	}
	for _, opt := range opts {
		opt(js)
	}

	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", "interval", js.interval, "dry_run", js.dryRun)
	js.scheduler.Start()
}

// Stop waits for a running job and stops the scheduler
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	// A run that outlasts the interval delays the next one instead of overlapping it
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(js.interval),
		gocron.NewTask(js.runRepartition),
		gocron.WithName(RepartitionJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create repartition job: %w", err)
	}

	js.mu.Lock()
	js.jobs[RepartitionJobName] = job
	js.mu.Unlock()

	js.logger.Info("registered background jobs", "count", 1)
	return nil
}

// runRepartition receives the job context from gocron, cancelled when the scheduler stops
func (js *JobScheduler) runRepartition(ctx context.Context) {
	if _, err := js.RunOnce(ctx, js.dryRun); err != nil {
		js.logger.Error("scheduled repartition failed", "error", err)
	}
}

// RunOnce runs one repartition pass and records its summary.
// The summary is returned even when listing locations failed.
func (js *JobScheduler) RunOnce(ctx context.Context, dryRun bool) (*models.RepartitionSummary, error) {
	summary, err := js.repartitionSvc.ProcessAllLocations(ctx, dryRun)
	if summary != nil {
		js.mu.Lock()
		js.last = summary
		js.mu.Unlock()

		if js.summaryCache != nil {
			if cacheErr := js.summaryCache.SetLastSummary(ctx, summary); cacheErr != nil {
				js.logger.Warn("failed to cache repartition summary", "run_id", summary.RunID, "error", cacheErr)
			}
		}
	}
	return summary, err
}

// LastSummary returns the summary of the latest run in this process, nil before the first run
func (js *JobScheduler) LastSummary() *models.RepartitionSummary {
	js.mu.RLock()
	defer js.mu.RUnlock()
	return js.last
}

// NextRun returns the next scheduled time of the repartition job
func (js *JobScheduler) NextRun() (time.Time, error) {
	js.mu.RLock()
	job, ok := js.jobs[RepartitionJobName]
	js.mu.RUnlock()
	if !ok {
		return time.Time{}, fmt.Errorf("job %s is not registered", RepartitionJobName)
	}
	return job.NextRun()
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		jobs = append(jobs, name)
	}

	status := map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
		"interval":   js.interval.String(),
		"dry_run":    js.dryRun,
	}
	if js.last != nil {
		status["last_run_id"] = js.last.RunID.String()
		status["last_finished_at"] = js.last.FinishedAt
		status["last_total_moves"] = js.last.TotalMoves
	}
	return status
}
