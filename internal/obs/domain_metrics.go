package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts quote calculations by channel and outcome.
	QuotesTotal *prometheus.CounterVec
	// QuoteLatency records quote calculation latency in milliseconds.
	QuoteLatency *prometheus.HistogramVec
	// SurchargeRulesSkipped counts rules skipped because their kind could not be dispatched.
	SurchargeRulesSkipped *prometheus.CounterVec
	// OrderValidationsTotal counts order validations by outcome.
	OrderValidationsTotal *prometheus.CounterVec
	// OrderViolationsTotal counts individual constraint violations reported.
	OrderViolationsTotal prometheus.Counter
	// BillRunOrdersTotal counts orders processed by bill runs by outcome.
	BillRunOrdersTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of quote calculations by outcome.",
		}, []string{"channel", "result"}))
		QuoteLatency = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Latency for quote calculations in milliseconds.",
			Buckets:   []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"result"}))
		SurchargeRulesSkipped = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "surcharge_rules_skipped_total",
			Help:      "Count of surcharge rules skipped because their kind is unknown.",
		}, []string{"kind"}))
		OrderValidationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_validations_total",
			Help:      "Count of order validations against channel constraints by outcome.",
		}, []string{"result"}))
		OrderViolationsTotal = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_violations_total",
			Help:      "Total number of constraint violations reported by order validation.",
		}))
		BillRunOrdersTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_run_orders_total",
			Help:      "Count of orders processed by bill runs by outcome.",
		}, []string{"result"}))
	})
}

// CountSkippedRule increments the skipped-rule counter when metrics are registered.
func CountSkippedRule(kind string) {
	if SurchargeRulesSkipped == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	SurchargeRulesSkipped.WithLabelValues(kind).Inc()
}
