package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder backed by Prometheus.
// Collectors are registered lazily on first use.
type PrometheusRecorder struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	runs               *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
	locationsProcessed *prometheus.CounterVec
	movesPlanned       prometheus.Counter
	moveResults        *prometheus.CounterVec
	listingFailures    prometheus.Counter
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheus creates a Prometheus-backed recorder.
//
// Parameters:
//   - reg: registerer for the collectors (prometheus.DefaultRegisterer if nil)
//   - namespace: metrics namespace ("slotwise" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "slotwise"
	}

	return &PrometheusRecorder{reg: reg, namespace: namespace}
}

func (p *PrometheusRecorder) ensureRegistered() {
	p.once.Do(func() {
		p.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "repartition",
			Name:      "runs_total",
			Help:      "Total repartition runs by mode.",
		}, []string{"dry_run"})

		p.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "repartition",
			Name:      "run_duration_seconds",
			Help:      "Duration of repartition runs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms .. ~100s
		}, []string{"dry_run"})

		p.locationsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "repartition",
			Name:      "locations_processed_total",
			Help:      "Total locations processed by result status (no_issues, dry_run, done).",
		}, []string{"status"})

		p.movesPlanned = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "repartition",
			Name:      "moves_planned_total",
			Help:      "Total moves proposed by the planner.",
		})

		p.moveResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "repartition",
			Name:      "move_results_total",
			Help:      "Total executed moves by result (success, failure).",
		}, []string{"result"})

		p.listingFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "repartition",
			Name:      "listing_failures_total",
			Help:      "Runs aborted because eligible locations could not be listed.",
		})

		p.reg.MustRegister(p.runs)
		p.reg.MustRegister(p.runDuration)
		p.reg.MustRegister(p.locationsProcessed)
		p.reg.MustRegister(p.movesPlanned)
		p.reg.MustRegister(p.moveResults)
		p.reg.MustRegister(p.listingFailures)
	})
}

// RunCompleted counts a finished run and observes its duration.
func (p *PrometheusRecorder) RunCompleted(dryRun bool, duration time.Duration) {
	p.ensureRegistered()
	mode := strconv.FormatBool(dryRun)
	p.runs.WithLabelValues(mode).Inc()
	p.runDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// LocationProcessed counts a location pass by its result status.
func (p *PrometheusRecorder) LocationProcessed(status string) {
	p.ensureRegistered()
	p.locationsProcessed.WithLabelValues(status).Inc()
}

// MovesPlanned adds count proposed moves.
func (p *PrometheusRecorder) MovesPlanned(count int) {
	if count <= 0 {
		return
	}
	p.ensureRegistered()
	p.movesPlanned.Add(float64(count))
}

// MoveExecuted counts a committed move.
func (p *PrometheusRecorder) MoveExecuted() {
	p.ensureRegistered()
	p.moveResults.WithLabelValues("success").Inc()
}

// MoveFailed counts a rolled back move.
func (p *PrometheusRecorder) MoveFailed() {
	p.ensureRegistered()
	p.moveResults.WithLabelValues("failure").Inc()
}

// ListingFailed counts a run aborted at listing.
func (p *PrometheusRecorder) ListingFailed() {
	p.ensureRegistered()
	p.listingFailures.Inc()
}
