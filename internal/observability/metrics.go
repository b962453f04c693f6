package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the delivery and reminder flows.
type Metrics struct {
	registry *prometheus.Registry

	capsulesDeliveredTotal prometheus.Counter
	capsulesFailedTotal    *prometheus.CounterVec
	deliveryAttemptsTotal  prometheus.Counter
	retriesScheduledTotal  prometheus.Counter
	remindersSentTotal     prometheus.Counter
	batchDuration          prometheus.Histogram
	batchSkippedTotal      *prometheus.CounterVec
	sendDuration           *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		capsulesDeliveredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "capsule_engine",
				Name:      "capsules_delivered_total",
				Help:      "Total number of capsules delivered successfully.",
			},
		),
		capsulesFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "capsule_engine",
				Name:      "capsules_failed_total",
				Help:      "Total number of capsules that ended in the failed state.",
			},
			[]string{"reason"},
		),
		deliveryAttemptsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "capsule_engine",
				Name:      "delivery_attempts_total",
				Help:      "Total number of send attempts, including retries.",
			},
		),
		retriesScheduledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "capsule_engine",
				Name:      "retries_scheduled_total",
				Help:      "Total number of backoff retries performed.",
			},
		),
		remindersSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "capsule_engine",
				Name:      "reminders_sent_total",
				Help:      "Total number of pre-delivery reminder emails sent.",
			},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "capsule_engine",
				Name:      "batch_duration_seconds",
				Help:      "Delivery batch duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		batchSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "capsule_engine",
				Name:      "batch_skipped_total",
				Help:      "Total number of delivery ticks skipped, by reason.",
			},
			[]string{"reason"},
		),
		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "capsule_engine",
				Name:      "send_duration_seconds",
				Help:      "Mail send duration in seconds grouped by email kind.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.capsulesDeliveredTotal,
		m.capsulesFailedTotal,
		m.deliveryAttemptsTotal,
		m.retriesScheduledTotal,
		m.remindersSentTotal,
		m.batchDuration,
		m.batchSkippedTotal,
		m.sendDuration,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncCapsuleDelivered() {
	if m == nil {
		return
	}
	m.capsulesDeliveredTotal.Inc()
}

func (m *Metrics) IncCapsuleFailed(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.capsulesFailedTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) IncDeliveryAttempt() {
	if m == nil {
		return
	}
	m.deliveryAttemptsTotal.Inc()
}

func (m *Metrics) IncRetryScheduled() {
	if m == nil {
		return
	}
	m.retriesScheduledTotal.Inc()
}

func (m *Metrics) IncReminderSent() {
	if m == nil {
		return
	}
	m.remindersSentTotal.Inc()
}

func (m *Metrics) ObserveBatchDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.batchDuration.Observe(seconds)
}

func (m *Metrics) IncBatchSkipped(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.batchSkippedTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) ObserveSendDuration(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.WithLabelValues(kind).Observe(seconds)
}
