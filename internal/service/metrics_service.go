package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
)

const metricsNamespace = "attendance"

// MetricsService owns the Prometheus registry and keeps running totals for JSON snapshots.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    *prometheus.HistogramVec
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	jobDuration     *prometheus.HistogramVec
	jobsTotal       *prometheus.CounterVec
	remindersTotal  *prometheus.CounterVec
	exportsTotal    *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	jobSuccessCount      uint64
	jobFailureCount      uint64
	reminderCount        uint64
	exportCount          uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	m.cacheLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cache_operation_seconds",
		Help:      "Latency of cache reads and writes",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	}, []string{"op"})
	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "cache_hit_ratio",
		Help:      "Ratio of cache hits to total cache lookups",
	})
	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by result",
	}, []string{"result"})
	m.dbQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "db_query_duration_seconds",
		Help:      "Duration of database loads grouped by label",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})
	m.jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "job_duration_seconds",
		Help:      "Background job handler duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"queue", "type"})
	m.jobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "jobs_total",
		Help:      "Background job executions by outcome",
	}, []string{"queue", "type", "outcome"})
	m.remindersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "reminders_sent_total",
		Help:      "Reminders delivered by kind and channel",
	}, []string{"kind", "channel"})
	m.exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "exports_generated_total",
		Help:      "Generated report files by format",
	}, []string{"format"})
	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "Number of live goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	m.registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheHitRatio, m.cacheLookups,
		m.dbQueryDuration,
		m.jobDuration, m.jobsTotal,
		m.remindersTotal, m.exportsTotal,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a lookup result and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveDBQuery records the duration of a labelled database load.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveJob matches jobs.Observer and can be passed straight into a QueueConfig.
func (m *MetricsService) ObserveJob(queue, jobType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(queue, jobType).Observe(elapsed.Seconds())
	m.jobsTotal.WithLabelValues(queue, jobType, outcome).Inc()
	switch outcome {
	case jobs.OutcomeSuccess:
		atomic.AddUint64(&m.jobSuccessCount, 1)
	case jobs.OutcomeFailed:
		atomic.AddUint64(&m.jobFailureCount, 1)
	}
}

// RecordReminder counts a delivered reminder.
func (m *MetricsService) RecordReminder(kind models.ReminderKind, channel string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(string(kind), channel).Inc()
	atomic.AddUint64(&m.reminderCount, 1)
}

// RecordExport counts a generated report file.
func (m *MetricsService) RecordExport(format models.ReportFormat) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(string(format)).Inc()
	atomic.AddUint64(&m.exportCount, 1)
}

// Snapshot returns aggregated counters for the admin metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)

	snapshot := models.SystemMetrics{
		RequestsTotal:    requests,
		CacheHits:        hits,
		CacheMisses:      misses,
		DBQueryCount:     dbCount,
		JobsSucceeded:    atomic.LoadUint64(&m.jobSuccessCount),
		JobsFailed:       atomic.LoadUint64(&m.jobFailureCount),
		RemindersSent:    atomic.LoadUint64(&m.reminderCount),
		ExportsGenerated: atomic.LoadUint64(&m.exportCount),
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
	if hits+misses > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	if requests > 0 {
		snapshot.AverageRequestDurationMs = avgMillis(atomic.LoadUint64(&m.requestDurationTotal), requests)
	}
	if dbCount > 0 {
		snapshot.AverageDBQueryDurationMs = avgMillis(atomic.LoadUint64(&m.dbQueryDurationTotal), dbCount)
	}
	return snapshot
}

func avgMillis(totalNanos, count uint64) float64 {
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
