// Package metrics содержит Prometheus-метрики конвейера аудита.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор коллекторов диспетчера, сопоставителя и регистратора.
type Metrics struct {
	Published       *prometheus.CounterVec // channel
	Dropped         *prometheus.CounterVec // channel, reason
	HandlerFailures *prometheus.CounterVec // channel
	Lookups         *prometheus.CounterVec // result: match|empty|error
	Recorded        prometheus.Counter
	PersistFailures prometheus.Counter
	Fallbacks       prometheus.Counter
	RecordDuration  prometheus.Histogram
}

// New создает метрики и регистрирует их в reg. В тестах передаётся prometheus.NewRegistry(),
// чтобы повторная регистрация не конфликтовала.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounterVec(prometheus.CounterOpts{
			Name: "casetrail_events_published_total",
			Help: "Total number of events published per channel",
		}, []string{"channel"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "casetrail_events_dropped_total",
			Help: "Total number of events dropped before reaching handlers",
		}, []string{"channel", "reason"}),
		HandlerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "casetrail_handler_failures_total",
			Help: "Total number of failed or panicked handler invocations",
		}, []string{"channel"}),
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "casetrail_subscription_lookups_total",
			Help: "Subscription lookups by result",
		}, []string{"result"}),
		Recorded: f.NewCounter(prometheus.CounterOpts{
			Name: "casetrail_audit_entries_recorded_total",
			Help: "Total number of audit entries persisted",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "casetrail_audit_persist_failures_total",
			Help: "Total number of audit store write failures",
		}),
		Fallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "casetrail_audit_serialization_fallbacks_total",
			Help: "Payloads recorded through the textual fallback instead of JSON",
		}),
		RecordDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "casetrail_audit_record_duration_seconds",
			Help:    "Latency of audit store writes",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncPublished учитывает опубликованное событие.
func (m *Metrics) IncPublished(channel string) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(channel).Inc()
}

// IncDropped учитывает событие, не дошедшее до обработчиков.
func (m *Metrics) IncDropped(channel, reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(channel, reason).Inc()
}

// IncHandlerFailures учитывает сбой обработчика.
func (m *Metrics) IncHandlerFailures(channel string) {
	if m == nil {
		return
	}
	m.HandlerFailures.WithLabelValues(channel).Inc()
}

// IncLookup учитывает результат поиска подписок.
func (m *Metrics) IncLookup(result string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(result).Inc()
}

// ObserveRecord учитывает запись в хранилище аудита.
func (m *Metrics) ObserveRecord(seconds float64, err error) {
	if m == nil {
		return
	}
	m.RecordDuration.Observe(seconds)
	if err != nil {
		m.PersistFailures.Inc()
		return
	}
	m.Recorded.Inc()
}

// IncFallbacks учитывает текстовую сериализацию полезной нагрузки.
func (m *Metrics) IncFallbacks() {
	if m == nil {
		return
	}
	m.Fallbacks.Inc()
}
