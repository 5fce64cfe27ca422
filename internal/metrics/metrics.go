package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts checkout outcomes and tracks pipeline latency.
type CheckoutMetrics struct {
	Outcomes *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewCheckoutMetrics() *CheckoutMetrics {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "outcomes_total",
		Help:      "Checkout outcomes by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "duration_ms",
		Help:      "Checkout pipeline latency in milliseconds.",
		Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"result"})

	prometheus.MustRegister(outcomes, duration)
	return &CheckoutMetrics{Outcomes: outcomes, Duration: duration}
}

// Observe records one finished checkout attempt.
func (m *CheckoutMetrics) Observe(result string, started time.Time) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(result).Inc()
	m.Duration.WithLabelValues(result).Observe(float64(time.Since(started).Milliseconds()))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
