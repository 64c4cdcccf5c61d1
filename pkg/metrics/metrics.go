// Package metrics holds the Prometheus counters of the order flow.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the order-flow counters.
type Metrics struct {
	OrdersCreated prometheus.Counter
	Outcomes      *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders persisted after a successful user validation.",
		}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_outcomes_total",
			Help: "Order creation attempts by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification dispatch attempts by kind and result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(m.OrdersCreated, m.Outcomes, m.Notifications)
	return m
}

// Outcome counts one order creation attempt.
func (m *Metrics) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(outcome).Inc()
}

// Created counts one persisted order.
func (m *Metrics) Created() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

// Notification counts one dispatch attempt.
func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}
