// Package metrics provides Prometheus metrics instrumentation for the
// prediction server.
//
// It exposes operational metrics about the inference pipeline, the model
// artifact cache, and error tracking. All metrics are exposed via the
// /metrics HTTP endpoint for Prometheus scraping.
//
// Metrics exposed:
//   - candlecast_predict_seconds: Histogram of end-to-end prediction duration
//   - candlecast_predicted_value: Gauge of the last prediction per symbol
//   - candlecast_errors_total: Counter of errors by component and reason
//   - candlecast_cache_hits_total: Counter of artifact cache hits
//   - candlecast_cache_misses_total: Counter of artifact cache misses
//   - candlecast_cache_load_errors_total: Counter of failed artifact loads
//   - candlecast_cache_entries: Gauge of cached artifact triples
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the prediction server.
type Metrics struct {
	PredictSeconds prometheus.Histogram
	PredictedValue *prometheus.GaugeVec
	ErrorsTotal    *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PredictSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "candlecast_predict_seconds",
			Help:    "Time spent serving a prediction request",
			Buckets: prometheus.DefBuckets,
		}),

		PredictedValue: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "candlecast_predicted_value",
			Help: "Last predicted target value per symbol",
		}, []string{"symbol"}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "candlecast_errors_total",
			Help: "Total number of errors by component and reason",
		}, []string{"component", "reason"}),
	}
}

// CacheStatsSource reports artifact cache counters.
type CacheStatsSource interface {
	Stats() (hits, misses, loadErrors int64)
	Len() int
}

// RegisterCache registers collector functions that read cache counters on
// scrape, so the cache itself stays free of Prometheus types.
func (m *Metrics) RegisterCache(cache CacheStatsSource) {
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "candlecast_cache_hits_total",
		Help: "Total artifact cache hits",
	}, func() float64 {
		hits, _, _ := cache.Stats()
		return float64(hits)
	})

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "candlecast_cache_misses_total",
		Help: "Total artifact cache misses",
	}, func() float64 {
		_, misses, _ := cache.Stats()
		return float64(misses)
	})

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "candlecast_cache_load_errors_total",
		Help: "Total failed artifact loads",
	}, func() float64 {
		_, _, loadErrors := cache.Stats()
		return float64(loadErrors)
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "candlecast_cache_entries",
		Help: "Number of cached artifact triples",
	}, func() float64 {
		return float64(cache.Len())
	})
}

// RecordPredict records the time spent serving a prediction.
func (m *Metrics) RecordPredict(seconds float64) {
	m.PredictSeconds.Observe(seconds)
}

// SetPredictedValue sets the last predicted value for a symbol.
func (m *Metrics) SetPredictedValue(symbol string, value float64) {
	m.PredictedValue.WithLabelValues(symbol).Set(value)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
