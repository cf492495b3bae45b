package observability

import (
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the qrlink service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	resolveTotal    *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	mutationsTotal  *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qrlink_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		resolveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qrlink_resolve_total",
				Help: "QR resolutions by outcome (hit, miss, error).",
			},
			[]string{"outcome"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qrlink_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qrlink_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qrlink_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		mutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qrlink_option_mutations_total",
				Help: "Profile option mutations by operation (add, remove, activate).",
			},
			[]string{"operation"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrResolve increments the resolve counter for an outcome.
func (m *Metrics) IncrResolve(outcome string) {
	m.resolveTotal.WithLabelValues(outcome).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrMutation increments the option mutation counter.
func (m *Metrics) IncrMutation(operation string) {
	m.mutationsTotal.WithLabelValues(operation).Inc()
}

// GetResolverSnapshot returns a snapshot of resolver metrics suitable for
// the GET /v1/metrics/resolver endpoint.
func (m *Metrics) GetResolverSnapshot() *domain.ResolverMetrics {
	hits := getCounterValue(m.resolveTotal, "hit")
	misses := getCounterValue(m.resolveTotal, "miss")
	errors := getCounterValue(m.resolveTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "mapping")
	cacheMisses := getCounterValue(m.cacheMisses, "mapping")

	total := hits + misses + errors
	hitRate := float64(0)
	cacheHitRate := float64(0)
	if total > 0 {
		hitRate = hits / total
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.ResolverMetrics{
		TotalResolves: int64(total),
		Hits:          int64(hits),
		Misses:        int64(misses),
		Errors:        int64(errors),
		HitRate:       hitRate,
		CacheHitRate:  cacheHitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
