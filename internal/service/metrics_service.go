package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	submissions     *prometheus.CounterVec
	recordsWritten  prometheus.Counter
	studentsImport  *prometheus.CounterVec
	loginAttempts   *prometheus.CounterVec
	exports         *prometheus.CounterVec
}

// NewMetricsService registers the HTTP, cache and room-check collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_submissions_total",
		Help: "Room-check submissions by outcome",
	}, []string{"outcome"})

	recordsWritten := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_attendance_records_written_total",
		Help: "Attendance records inserted",
	})

	studentsImport := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_student_imports_total",
		Help: "Roster imports by outcome",
	}, []string{"outcome"})

	loginAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_exports_total",
		Help: "Attendance exports by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, submissions, recordsWritten, studentsImport, loginAttempts, exports, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
		submissions:     submissions,
		recordsWritten:  recordsWritten,
		studentsImport:  studentsImport,
		loginAttempts:   loginAttempts,
		exports:         exports,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.Observe(duration.Seconds())
}

// RecordSubmission counts a submission outcome ("accepted", "conflict", "invalid", "error").
func (m *MetricsService) RecordSubmission(outcome string, records int) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	if records > 0 {
		m.recordsWritten.Add(float64(records))
	}
}

// RecordImport counts a roster import outcome.
func (m *MetricsService) RecordImport(outcome string) {
	if m == nil {
		return
	}
	m.studentsImport.WithLabelValues(outcome).Inc()
}

// RecordLogin counts a login attempt.
func (m *MetricsService) RecordLogin(success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordExport counts a rendered export.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}
