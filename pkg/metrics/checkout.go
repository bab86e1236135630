package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	OutcomePersisted = "persisted"
	OutcomeFailed    = "failed"
	OutcomeQueued    = "queued"
)

// CheckoutMetrics counts kiosk submissions by outcome.
type CheckoutMetrics struct {
	submissions *prometheus.CounterVec
	revenue     prometheus.Counter
	duration    prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Kiosk order submissions by outcome.",
	}, []string{"outcome"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_revenue_total",
		Help: "Sum of submitted order totals.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_create_order_seconds",
		Help:    "Time spent persisting a kiosk order.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(submissions, revenue, duration)
	return &CheckoutMetrics{
		submissions: submissions,
		revenue:     revenue,
		duration:    duration,
	}
}

func (c *CheckoutMetrics) IncOutcome(outcome string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (c *CheckoutMetrics) AddRevenue(amount float64) {
	if c == nil || c.revenue == nil || amount <= 0 {
		return
	}
	c.revenue.Add(amount)
}

func (c *CheckoutMetrics) ObserveCreate(duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.Observe(duration.Seconds())
}
