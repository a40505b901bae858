package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "gridtrain"

// MetricsService owns a private Prometheus registry. A nil *MetricsService is
// valid and records nothing, so callers never need to guard on it.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cacheLookups *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec
	hits, misses atomic.Uint64

	eventsGraded  *prometheus.CounterVec
	sessionsEnded *prometheus.CounterVec
	reportJobs    *prometheus.CounterVec
	liveClients   prometheus.Gauge
}

// NewMetricsService builds the collectors and registers them together with
// the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route template.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route template and status.",
		}, []string{"method", "path", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Dashboard cache lookups by result.",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "operation_seconds",
			Help:      "Redis round trip for dashboard cache reads and writes.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"op"}),
		eventsGraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_graded_total",
			Help:      "Graded events by resulting status and penalty.",
		}, []string{"status", "penalised"}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulator",
			Name:      "sessions_finished_total",
			Help:      "Finished simulator sessions by outcome.",
		}, []string{"outcome"}),
		reportJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "reports",
			Name:      "jobs_total",
			Help:      "Report jobs by terminal status.",
		}, []string{"status"}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "live",
			Name:      "clients",
			Help:      "Connected live session websocket clients.",
		}),
	}

	hitRatio := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Share of dashboard cache lookups served from Redis.",
	}, m.cacheHitRatio)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration, m.requestTotal,
		m.cacheLookups, m.cacheLatency, hitRatio,
		m.eventsGraded, m.sessionsEnded, m.reportJobs, m.liveClients,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format, or 503 when metrics are off.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// RecordCacheOperation counts a dashboard cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	if hit {
		m.hits.Add(1)
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.misses.Add(1)
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

func (m *MetricsService) cacheHitRatio() float64 {
	hits := m.hits.Load()
	total := hits + m.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// RecordEventGraded counts a grading decision.
func (m *MetricsService) RecordEventGraded(status string, penalised bool) {
	if m == nil {
		return
	}
	m.eventsGraded.WithLabelValues(status, strconv.FormatBool(penalised)).Inc()
}

// RecordSessionFinished counts a session reaching PASSED or FAILED.
func (m *MetricsService) RecordSessionFinished(outcome string) {
	if m == nil {
		return
	}
	m.sessionsEnded.WithLabelValues(outcome).Inc()
}

// RecordReportJob counts a report job reaching FINISHED or FAILED.
func (m *MetricsService) RecordReportJob(status string) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(status).Inc()
}

// SetLiveClients publishes the websocket client count.
func (m *MetricsService) SetLiveClients(n int) {
	if m == nil {
		return
	}
	m.liveClients.Set(float64(n))
}
