package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters and timings for the checkout pipeline.
type CheckoutMetrics struct {
	duration   *prometheus.HistogramVec
	orders     prometheus.Counter
	failures   *prometheus.CounterVec
	orderValue prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout executions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created",
		Help: "Orders created by checkout.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures",
		Help: "Checkout failures by pipeline stage.",
	}, []string{"stage"})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_order_value_cents",
		Help:    "Grand total of created orders in cents.",
		Buckets: prometheus.ExponentialBuckets(500, 2.5, 10),
	})
	reg.MustRegister(duration, orders, failures, orderValue)
	return &CheckoutMetrics{
		duration:   duration,
		orders:     orders,
		failures:   failures,
		orderValue: orderValue,
	}
}

// ObserveDuration records how long a checkout attempt took.
func (c *CheckoutMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncOrderCreated counts a committed order and records its value.
func (c *CheckoutMetrics) IncOrderCreated(totalCents int) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.Inc()
	if c.orderValue != nil {
		c.orderValue.Observe(float64(totalCents))
	}
}

// IncFailure increments the failure counter for the named stage.
func (c *CheckoutMetrics) IncFailure(stage string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(stage)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
