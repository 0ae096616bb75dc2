package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout outcomes
const (
	OutcomeCommitted         = "committed"
	OutcomeEmptyCart         = "empty_cart"
	OutcomeCartChanged       = "cart_changed"
	OutcomeInvalid           = "invalid_request"
	OutcomeUnavailable       = "product_unavailable"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeLockTimeout       = "lock_timeout"
	OutcomePersistence       = "persistence_error"
)

type CheckoutMetrics struct {
	Checkouts     *prometheus.CounterVec
	LatencyMS     prometheus.Histogram
	UnitsDeducted prometheus.Counter
	PriceClamps   prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wineshop",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wineshop",
		Subsystem: "checkout",
		Name:      "duration_ms",
		Help:      "Checkout latency in milliseconds, validation through commit or rollback.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	units := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wineshop",
		Subsystem: "inventory",
		Name:      "units_deducted_total",
		Help:      "Bottles deducted from inventory batches by committed checkouts.",
	})
	clamps := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wineshop",
		Subsystem: "pricing",
		Name:      "clamped_totals_total",
		Help:      "Orders whose discount exceeded items plus shipping and was clamped.",
	})

	reg.MustRegister(checkouts, latency, units, clamps)
	return &CheckoutMetrics{Checkouts: checkouts, LatencyMS: latency, UnitsDeducted: units, PriceClamps: clamps}
}

func (m *CheckoutMetrics) Observe(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(outcome).Inc()
	m.LatencyMS.Observe(float64(time.Since(started).Milliseconds()))
}

func (m *CheckoutMetrics) AddDeducted(units int) {
	if m == nil {
		return
	}
	m.UnitsDeducted.Add(float64(units))
}

func (m *CheckoutMetrics) Clamped() {
	if m == nil {
		return
	}
	m.PriceClamps.Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
