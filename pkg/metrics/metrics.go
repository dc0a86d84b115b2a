// Package metrics exposes Prometheus counters for the conversation
// engine. All observe methods are nil-safe so callers can run without a
// registry wired.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type EngineMetrics struct {
	messagesTotal   *prometheus.CounterVec
	repliesTotal    prometheus.Counter
	duplicatesTotal prometheus.Counter
	conflictsTotal  prometheus.Counter
	ordersTotal     prometheus.Counter
	sendFailures    prometheus.Counter
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "engine",
			Name:      "messages_total",
			Help:      "Inbound messages processed, by classified intent",
		}, []string{"intent"}),
		repliesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "engine",
			Name:      "replies_total",
			Help:      "Replies produced by the engine",
		}),
		duplicatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "engine",
			Name:      "duplicates_dropped_total",
			Help:      "Re-delivered messages dropped by the deduplicator",
		}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "engine",
			Name:      "store_conflicts_total",
			Help:      "Compare-and-swap conflicts that forced a transition replay",
		}),
		ordersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "engine",
			Name:      "orders_created_total",
			Help:      "Orders successfully finalized and persisted",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "transport",
			Name:      "send_failures_total",
			Help:      "Outbound sends that failed after retries",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.repliesTotal, m.duplicatesTotal, m.conflictsTotal, m.ordersTotal, m.sendFailures)
	return m
}

func (m *EngineMetrics) ObserveMessage(intent string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(intent).Inc()
}

func (m *EngineMetrics) ObserveReply() {
	if m == nil {
		return
	}
	m.repliesTotal.Inc()
}

func (m *EngineMetrics) ObserveDuplicate() {
	if m == nil {
		return
	}
	m.duplicatesTotal.Inc()
}

func (m *EngineMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *EngineMetrics) ObserveOrder() {
	if m == nil {
		return
	}
	m.ordersTotal.Inc()
}

func (m *EngineMetrics) ObserveSendFailure() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}
