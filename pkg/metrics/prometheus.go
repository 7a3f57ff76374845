// Package metrics provides Prometheus metrics for the ENCORE clustering pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Core Pipeline Metrics - What really matters for a clustering run
	recordsScored prometheus.Counter
	dataAnomalies prometheus.Counter
	runsCompleted prometheus.Counter

	// Distance Metrics
	distanceDuration prometheus.Histogram

	// Solver Metrics
	solveDuration   prometheus.Histogram
	solvesTotal     prometheus.Counter
	infeasibleTotal prometheus.Counter
	solverErrors    prometheus.Counter
	branchNodes     prometheus.Histogram

	// Run Shape Metrics
	recordCount  prometheus.Gauge
	profileCount prometheus.Gauge
	workerCount  prometheus.Gauge
	clusterSize  *prometheus.GaugeVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "encore",
		subsystem:        "clustering",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.recordsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_scored_total",
		Help:      "Total number of records annotated with profile distances",
	})

	m.dataAnomalies = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "data_anomalies_total",
		Help:      "Total number of non-numeric feature values penalized during scoring",
	})

	m.runsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_completed_total",
		Help:      "Total number of pipeline runs that produced an assignment",
	})

	m.distanceDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "distance_duration_milliseconds",
		Help:      "Duration of the distance annotation phase in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.solveDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solve_duration_milliseconds",
		Help:      "Duration of the assignment solve in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.solvesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solves_total",
		Help:      "Total number of assignment solves attempted",
	})

	m.infeasibleTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "infeasible_total",
		Help:      "Total number of solves that reported an infeasible model",
	})

	m.solverErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solver_errors_total",
		Help:      "Total number of solver failures distinct from infeasibility",
	})

	m.branchNodes = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "branch_nodes",
		Help:      "Number of branch-and-bound nodes explored per solve",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	m.recordCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "record_count",
		Help:      "Number of records in the current run",
	})

	m.profileCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_count",
		Help:      "Number of registered archetype profiles",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of distance workers used by the current run",
	})

	m.clusterSize = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cluster_size",
			Help:      "Number of records assigned to each cluster in the last run",
		},
		[]string{"cluster"},
	)
}

// Package-level helpers on the global manager.

// RecordScored increments the records scored counter.
func RecordScored() {
	globalManager.recordsScored.Inc()
}

// RecordDataAnomaly increments the data anomalies counter.
func RecordDataAnomaly() {
	globalManager.dataAnomalies.Inc()
}

// RecordRunCompleted increments the completed runs counter.
func RecordRunCompleted() {
	globalManager.runsCompleted.Inc()
}

// RecordDistanceDuration records distance annotation duration in milliseconds.
func RecordDistanceDuration(ms float64) {
	globalManager.distanceDuration.Observe(ms)
}

// RecordSolveDuration records assignment solve duration in milliseconds.
func RecordSolveDuration(ms float64) {
	globalManager.solveDuration.Observe(ms)
}

// RecordSolveAttempt increments the attempted solves counter.
func RecordSolveAttempt() {
	globalManager.solvesTotal.Inc()
}

// RecordInfeasible increments the infeasible models counter.
func RecordInfeasible() {
	globalManager.infeasibleTotal.Inc()
}

// RecordSolverError increments the solver errors counter.
func RecordSolverError() {
	globalManager.solverErrors.Inc()
}

// RecordBranchNodes records the number of branch-and-bound nodes explored.
func RecordBranchNodes(n int) {
	globalManager.branchNodes.Observe(float64(n))
}

// UpdateRecordCount sets the number of records in the current run.
func UpdateRecordCount(n int) {
	globalManager.recordCount.Set(float64(n))
}

// UpdateProfileCount sets the number of registered profiles.
func UpdateProfileCount(n int) {
	globalManager.profileCount.Set(float64(n))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(n int) {
	globalManager.workerCount.Set(float64(n))
}

// UpdateClusterSize sets the number of records assigned to a cluster.
func UpdateClusterSize(cluster string, n int) {
	globalManager.clusterSize.WithLabelValues(cluster).Set(float64(n))
}

// GetRegistry returns the registry backing the global manager, for
// exposing a /metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
