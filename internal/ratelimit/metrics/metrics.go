package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the intake rate limiter. All methods are nil-safe so wiring
// stays optional in tests.
type Metrics struct {
	ChecksTotal    *prometheus.CounterVec
	FallbacksTotal prometheus.Counter
	BreakerState   prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "serviapp_ratelimit_checks_total",
			Help: "Rate limit checks by outcome.",
		}, []string{"outcome"}),
		FallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "serviapp_ratelimit_fallbacks_total",
			Help: "Checks served by the in-memory fallback store.",
		}),
		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "serviapp_ratelimit_breaker_open",
			Help: "1 when the bucket store circuit breaker is open.",
		}),
	}
}

func (m *Metrics) RecordCheck(allowed bool) {
	if m == nil || m.ChecksTotal == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "limited"
	}
	m.ChecksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordFallback() {
	if m == nil || m.FallbacksTotal == nil {
		return
	}
	m.FallbacksTotal.Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil || m.BreakerState == nil {
		return
	}
	if open {
		m.BreakerState.Set(1)
		return
	}
	m.BreakerState.Set(0)
}
