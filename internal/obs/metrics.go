package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the fetch engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	FetchesTotal      *prometheus.CounterVec
	TLSFallbacksTotal prometheus.Counter
	HandshakeFailures *prometheus.CounterVec
	RedirectsTotal    prometheus.Counter
	FetchDuration     prometheus.Histogram
	ResponseBytes     prometheus.Histogram
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rawfetch",
			Name:      "fetches_total",
			Help:      "Single fetches by effective scheme and outcome",
		}, []string{"scheme", "outcome"}),
		TLSFallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rawfetch",
			Name:      "tls_fallbacks_total",
			Help:      "TLS handshakes that fell back to plaintext",
		}),
		HandshakeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rawfetch",
			Name:      "handshake_failures_total",
			Help:      "TLS handshake failures by classification",
		}, []string{"kind"}),
		RedirectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rawfetch",
			Name:      "redirects_total",
			Help:      "Redirect hops followed",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rawfetch",
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of a single fetch, connect to last byte",
			Buckets:   prometheus.DefBuckets,
		}),
		ResponseBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rawfetch",
			Name:      "response_bytes",
			Help:      "Raw bytes collected per fetch",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		}),
	}
	r.MustRegister(m.FetchesTotal, m.TLSFallbacksTotal, m.HandshakeFailures,
		m.RedirectsTotal, m.FetchDuration, m.ResponseBytes)
	return m
}

// Registry returns the registry holding m's collectors, nil for nil m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch records one finished fetch. outcome is "ok" or the failing
// phase.
func (m *Metrics) ObserveFetch(scheme, outcome string, took time.Duration, rawBytes int) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(scheme, outcome).Inc()
	m.FetchDuration.Observe(took.Seconds())
	if outcome == "ok" {
		m.ResponseBytes.Observe(float64(rawBytes))
	}
}

// HandshakeFailed counts a failed TLS handshake by classification.
func (m *Metrics) HandshakeFailed(kind string) {
	if m == nil {
		return
	}
	m.HandshakeFailures.WithLabelValues(kind).Inc()
}

// FellBack counts a plaintext retry after a failed handshake.
func (m *Metrics) FellBack() {
	if m == nil {
		return
	}
	m.TLSFallbacksTotal.Inc()
}

// Redirected counts one followed redirect hop.
func (m *Metrics) Redirected() {
	if m == nil {
		return
	}
	m.RedirectsTotal.Inc()
}
