package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the dispatch metrics.
type metrics struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		dispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wlbroker_dispatch_total",
				Help: "Total number of dispatched object method calls",
			},
			[]string{"object", "method", "outcome"},
		),
		dispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wlbroker_dispatch_duration_seconds",
				Help:    "Duration of dispatched object method calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"object", "method"},
		),
	}
}

func (m *metrics) observe(object, method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(object, method, outcome).Inc()
	m.dispatchDuration.WithLabelValues(object, method).Observe(seconds)
}
