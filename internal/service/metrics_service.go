package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for the planner.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	registryQueries *prometheus.HistogramVec
	commits         *prometheus.CounterVec
	occupiedSlots   prometheus.Gauge
	recommendations *prometheus.CounterVec
	imports         *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	realtimeClients prometheus.Gauge

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService constructs a MetricsService with its own registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_cache_latency_seconds",
			Help:    "Latency of recommendation cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_cache_write_seconds",
			Help:    "Latency of recommendation cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recommendation_cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_cache_lookups_total",
			Help: "Recommendation cache lookups by result",
		}, []string{"result"}),
		registryQueries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_query_duration_seconds",
			Help:    "Duration of roster registry queries",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_commits_total",
			Help: "Timetable commit attempts by outcome",
		}, []string{"outcome"}),
		occupiedSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_occupied_slots",
			Help: "Number of occupied timetable slots",
		}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Recommendation requests served by source",
		}, []string{"source"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imports_total",
			Help: "CSV imports by kind and outcome",
		}, []string{"kind", "outcome"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "CSV data rows by kind and result",
		}, []string{"kind", "result"}),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_clients",
			Help: "Connected websocket clients",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheHitRatio, m.cacheLookups,
		m.registryQueries,
		m.commits, m.occupiedSlots, m.recommendations,
		m.imports, m.importRows,
		m.realtimeClients,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return m
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
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

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveRegistryQuery records the timing of a roster registry query.
func (m *MetricsService) ObserveRegistryQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.registryQueries.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordCommit counts a commit attempt. outcome is "committed" or an error code.
func (m *MetricsService) RecordCommit(outcome string, occupied int) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(outcome).Inc()
	m.occupiedSlots.Set(float64(occupied))
}

// RecordRecommendation counts a served recommendation; source is "cache" or "engine".
func (m *MetricsService) RecordRecommendation(source string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(source).Inc()
}

// RecordImport counts a finished import and its row outcomes.
func (m *MetricsService) RecordImport(kind, outcome string, applied, skipped int) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(kind, outcome).Inc()
	m.importRows.WithLabelValues(kind, "applied").Add(float64(applied))
	m.importRows.WithLabelValues(kind, "skipped").Add(float64(skipped))
}

// SetRealtimeClients publishes the websocket client count.
func (m *MetricsService) SetRealtimeClients(n int) {
	if m == nil {
		return
	}
	m.realtimeClients.Set(float64(n))
}
