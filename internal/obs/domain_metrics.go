package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesRegisteredTotal counts sale registration outcomes by error kind ("ok" on success).
	SalesRegisteredTotal *prometheus.CounterVec
	// SalesQuotedTotal counts quote outcomes by error kind.
	SalesQuotedTotal *prometheus.CounterVec
	// SaleRegisterLatency records registration transaction latency in milliseconds.
	SaleRegisterLatency prometheus.Histogram
	// TicketsRenderedTotal counts ticket PDF renders by outcome.
	TicketsRenderedTotal *prometheus.CounterVec
	// SaleEventsPublishedTotal counts sale event publishing outcomes.
	SaleEventsPublishedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SalesRegisteredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_registered_total",
			Help:      "Count of sale registration attempts by result.",
		}, []string{"result"})
		SalesQuotedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_quoted_total",
			Help:      "Count of sale quotes by result.",
		}, []string{"result"})
		SaleRegisterLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_register_duration_ms",
			Help:      "Latency of the sale registration transaction in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		})
		TicketsRenderedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_rendered_total",
			Help:      "Count of ticket PDF renders by result.",
		}, []string{"result"})
		SaleEventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_events_published_total",
			Help:      "Count of sale events handed to the broker by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, SalesRegisteredTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesRegisteredTotal = v
			}
		})
		mustRegisterCollector(reg, SalesQuotedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesQuotedTotal = v
			}
		})
		mustRegisterCollector(reg, SaleRegisterLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				SaleRegisterLatency = v
			}
		})
		mustRegisterCollector(reg, TicketsRenderedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TicketsRenderedTotal = v
			}
		})
		mustRegisterCollector(reg, SaleEventsPublishedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SaleEventsPublishedTotal = v
			}
		})
	})
}

// CountResult increments vec for result when the collector has been registered.
// Services call it unconditionally so metrics stay optional.
func CountResult(vec *prometheus.CounterVec, result string) {
	if vec == nil {
		return
	}
	if result == "" {
		result = "ok"
	}
	vec.WithLabelValues(result).Inc()
}

// ObserveMillis records a latency sample when the histogram has been registered.
func ObserveMillis(h prometheus.Histogram, ms float64) {
	if h == nil {
		return
	}
	h.Observe(ms)
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
