package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PushMetrics records broadcast fan-out outcomes.
type PushMetrics struct {
	broadcasts *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	pruned     prometheus.Counter
	duration   prometheus.Histogram
}

// NewPushMetrics registers the push metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewPushMetrics(reg prometheus.Registerer) *PushMetrics {
	if reg == nil {
		return &PushMetrics{}
	}
	broadcasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_broadcasts_total",
		Help: "Broadcast calls by notification type.",
	}, []string{"type"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_deliveries_total",
		Help: "Device-level push deliveries by result.",
	}, []string{"result"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_recipients_skipped_total",
		Help: "Recipients considered but not dispatched to, by reason.",
	}, []string{"reason"})
	pruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_subscriptions_pruned_total",
		Help: "Subscriptions removed after the push service reported them gone.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "push_broadcast_duration_seconds",
		Help:    "Wall time of a broadcast call.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(broadcasts, deliveries, skipped, pruned, duration)
	return &PushMetrics{
		broadcasts: broadcasts,
		deliveries: deliveries,
		skipped:    skipped,
		pruned:     pruned,
		duration:   duration,
	}
}

func (m *PushMetrics) IncBroadcast(notifType string) {
	if m == nil || m.broadcasts == nil {
		return
	}
	m.broadcasts.WithLabelValues(normalizeLabel(notifType)).Inc()
}

func (m *PushMetrics) IncSent() {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues("sent").Inc()
}

func (m *PushMetrics) IncFailed() {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues("failed").Inc()
}

func (m *PushMetrics) IncSkipped(reason string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *PushMetrics) IncPruned() {
	if m == nil || m.pruned == nil {
		return
	}
	m.pruned.Inc()
}

func (m *PushMetrics) ObserveDuration(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
