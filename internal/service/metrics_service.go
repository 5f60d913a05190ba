package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

// Toggle outcomes reported by the selection endpoint.
const (
	ToggleAdded     = "added"
	ToggleRemoved   = "removed"
	ToggleRejected  = "rejected"
	ToggleConfirm   = "needs_confirmation"
	ToggleOverruled = "added_with_overlap"
)

// MetricsService owns the Prometheus registry and keeps light counters for the summary endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	toggles         *prometheus.CounterVec
	applied         *prometheus.CounterVec
	exports         *prometheus.CounterVec
	snapshotBuild   prometheus.Observer

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64

	mu             sync.Mutex
	toggleOutcomes map[string]uint64
}

// NewMetricsService registers the collectors on a private registry.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	toggles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_toggle_total",
		Help: "Section toggle attempts by outcome",
	}, []string{"outcome"})

	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_recommendations_applied_total",
		Help: "Applied recommendations by type",
	}, []string{"type"})

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_exports_total",
		Help: "Schedule exports by format",
	}, []string{"format"})

	snapshotBuild := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_snapshot_build_seconds",
		Help:    "Time spent computing planner snapshots",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheLookups,
		toggles, applied, exports, snapshotBuild, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheLookups:    cacheLookups,
		toggles:         toggles,
		applied:         applied,
		exports:         exports,
		snapshotBuild:   snapshotBuild,
		toggleOutcomes:  make(map[string]uint64),
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
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

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordToggle counts a section toggle outcome.
func (m *MetricsService) RecordToggle(outcome string) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(outcome).Inc()
	m.mu.Lock()
	m.toggleOutcomes[outcome]++
	m.mu.Unlock()
}

// RecordRecommendationApplied counts an accepted recommendation.
func (m *MetricsService) RecordRecommendationApplied(recType models.RecommendationType) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(string(recType)).Inc()
}

// RecordExport counts a rendered export.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

// ObserveSnapshotBuild records how long planner recomputation took.
func (m *MetricsService) ObserveSnapshotBuild(duration time.Duration) {
	if m == nil {
		return
	}
	m.snapshotBuild.Observe(duration.Seconds())
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	snap := models.MetricsSnapshot{
		RequestsTotal:  requests,
		CacheHits:      hits,
		CacheMisses:    misses,
		ToggleOutcomes: make(map[string]uint64),
		Goroutines:     runtime.NumGoroutine(),
		GeneratedAt:    time.Now().UTC(),
	}
	if hits+misses > 0 {
		snap.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	if requests > 0 {
		snap.AverageRequestDurationMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	m.mu.Lock()
	for k, v := range m.toggleOutcomes {
		snap.ToggleOutcomes[k] = v
	}
	m.mu.Unlock()
	return snap
}
