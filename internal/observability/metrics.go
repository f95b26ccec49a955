package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	apiRequestsTotal          *prometheus.CounterVec
	apiLatencySeconds         *prometheus.HistogramVec
	apiErrorsTotal            *prometheus.CounterVec
	materializationsTotal     *prometheus.CounterVec
	regenerationsTotal        *prometheus.CounterVec
	rosterSyncTotal           *prometheus.CounterVec
	attendanceMarksTotal      *prometheus.CounterVec
	scheduleCacheRequests     *prometheus.CounterVec
	materializeLatencySeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		materializationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "class_instance_materializations_total",
			Help: "Outcomes of get-or-create calls on class instances.",
		}, []string{"outcome"})

		regenerationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "class_instance_regenerations_total",
			Help: "Roster regenerations of materialized class instances.",
		}, []string{"trigger"})

		rosterSyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_roster_sync_total",
			Help: "Per-instance outcomes of pushing enrollment changes into future instances.",
		}, []string{"result"})

		attendanceMarksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_marks_total",
			Help: "Attendance writes by resulting status, including unmarks.",
		}, []string{"status"})

		scheduleCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_cache_requests_total",
			Help: "Schedule range view cache lookups by result.",
		}, []string{"result"})

		materializeLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "class_instance_materialize_latency_seconds",
			Help:    "Latency distribution for instance materialization.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			materializationsTotal,
			regenerationsTotal,
			rosterSyncTotal,
			attendanceMarksTotal,
			scheduleCacheRequests,
			materializeLatencySeconds,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for served requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Materializations exposes the counter for get-or-create outcomes.
func Materializations() *prometheus.CounterVec {
	RegisterMetrics()
	return materializationsTotal
}

// Regenerations exposes the counter for roster regenerations.
func Regenerations() *prometheus.CounterVec {
	RegisterMetrics()
	return regenerationsTotal
}

// RosterSync exposes the counter for enrollment push outcomes.
func RosterSync() *prometheus.CounterVec {
	RegisterMetrics()
	return rosterSyncTotal
}

// AttendanceMarks exposes the counter for attendance writes.
func AttendanceMarks() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceMarksTotal
}

// ScheduleCacheRequests exposes the counter for schedule cache lookups.
func ScheduleCacheRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return scheduleCacheRequests
}

// MaterializeLatency exposes the materialization latency histogram.
func MaterializeLatency() prometheus.Histogram {
	RegisterMetrics()
	return materializeLatencySeconds
}
