// Package stats provides Prometheus metrics for scheduler operations and the HTTP API.
package stats

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation label values
const (
	OpSchedule   = "schedule"
	OpUnschedule = "unschedule"
	OpList       = "list"
	OpListByTask = "list_by_task"
)

// Status label values
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusInvalid  = "invalid"
	StatusError    = "error"
)

var (
	// Request metrics
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cronjob_scheduler_requests_total",
			Help: "Total number of HTTP requests received",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cronjob_scheduler_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Scheduler operation metrics
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cronjob_scheduler_operations_total",
			Help: "Total number of scheduler operations by outcome",
		},
		[]string{"operation", "status"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cronjob_scheduler_operation_duration_seconds",
			Help:    "Scheduler operation duration in seconds, including the API server round trip",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// Current state metrics
	schedules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cronjob_scheduler_schedules",
			Help: "Number of CronJobs seen by the last full list",
		},
	)
)

// MetricsRecorder handles recording metrics
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordRequest records an HTTP request
func (mr *MetricsRecorder) RecordRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)

	requestsTotal.WithLabelValues(method, path, statusStr).Inc()
	requestDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())
}

// RecordOperation records the outcome of a scheduler operation
func (mr *MetricsRecorder) RecordOperation(operation, status string, duration time.Duration) {
	operationsTotal.WithLabelValues(operation, status).Inc()
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetSchedules sets the number of schedules currently known
func (mr *MetricsRecorder) SetSchedules(count int) {
	schedules.Set(float64(count))
}
