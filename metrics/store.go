package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records requests served by the price store API.
type StoreMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	records  prometheus.Gauge
}

// NewStoreMetrics registers the store API metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "price_store_request_duration_seconds",
		Help:    "Duration of price store API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_store_requests_total",
		Help: "Price store API requests by operation and status code.",
	}, []string{"op", "status"})
	records := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "price_store_search_results",
		Help: "Number of records returned by the last search.",
	})
	reg.MustRegister(duration, requests, records)
	return &StoreMetrics{
		duration: duration,
		requests: requests,
		records:  records,
	}
}

// ObserveRequest records one served request.
func (m *StoreMetrics) ObserveRequest(op string, status int, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	op = normalizeLabel(op)
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.requests.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

// SetSearchResults records the size of the last search result.
func (m *StoreMetrics) SetSearchResults(n int) {
	if m == nil || m.records == nil {
		return
	}
	m.records.Set(float64(n))
}
