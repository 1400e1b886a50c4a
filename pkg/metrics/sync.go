package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics instruments order sync passes and their upstream calls.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	passDuration    *prometheus.HistogramVec
	passes          *prometheus.CounterVec
	ordersImported  *prometheus.CounterVec
	ordersSkipped   *prometheus.CounterVec
	unresolvedLines prometheus.Counter
	upstream        *prometheus.HistogramVec
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	m := &SyncMetrics{
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pass_duration_seconds",
			Help:      "Duration of order sync passes.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"trigger", "outcome"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "passes_total",
			Help:      "Order sync passes by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		ordersImported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "orders_imported_total",
			Help:      "Orders newly persisted by sync passes.",
		}, []string{"trigger"}),
		ordersSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "orders_skipped_total",
			Help:      "Upstream orders skipped because they were already imported.",
		}, []string{"trigger"}),
		unresolvedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "unresolved_cost_lines_total",
			Help:      "Line items whose unit cost could not be resolved and counted as zero.",
		}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of upstream API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
	}
	reg.MustRegister(m.passDuration, m.passes, m.ordersImported, m.ordersSkipped, m.unresolvedLines, m.upstream)
	return m
}

// ObservePass records one finished sync pass.
func (m *SyncMetrics) ObservePass(trigger, outcome string, duration time.Duration) {
	if m == nil || m.passes == nil {
		return
	}
	trigger, outcome = normalizeLabel(trigger), normalizeLabel(outcome)
	m.passDuration.WithLabelValues(trigger, outcome).Observe(duration.Seconds())
	m.passes.WithLabelValues(trigger, outcome).Inc()
}

// AddOrders records imported and skipped order counts for a pass.
func (m *SyncMetrics) AddOrders(trigger string, imported, skipped int) {
	if m == nil || m.ordersImported == nil {
		return
	}
	trigger = normalizeLabel(trigger)
	m.ordersImported.WithLabelValues(trigger).Add(float64(imported))
	m.ordersSkipped.WithLabelValues(trigger).Add(float64(skipped))
}

func (m *SyncMetrics) AddUnresolvedLines(n int) {
	if m == nil || m.unresolvedLines == nil || n <= 0 {
		return
	}
	m.unresolvedLines.Add(float64(n))
}

// ObserveUpstream records one upstream HTTP call.
func (m *SyncMetrics) ObserveUpstream(endpoint, status string, duration time.Duration) {
	if m == nil || m.upstream == nil {
		return
	}
	m.upstream.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(status)).Observe(duration.Seconds())
}
