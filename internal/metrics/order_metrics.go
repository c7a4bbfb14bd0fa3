package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// OrderMetrics считает операции над заказами и судьбу событий жизненного цикла.
// Реализует orders.Observer и events.Observer.
type OrderMetrics struct {
	ordersPlaced        prometheus.Counter
	statusChanges       *prometheus.CounterVec
	indexAppendFailures prometheus.Counter

	eventsPublished *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	listenerFailed  *prometheus.CounterVec
}

// NewOrderMetrics регистрирует метрики заказов; nil означает DefaultRegisterer.
func NewOrderMetrics(registerer prometheus.Registerer) *OrderMetrics {
	registerer = registererOrDefault(registerer)

	return &OrderMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storeorders_orders_placed_total",
			Help: "Total number of orders placed",
		}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storeorders_order_status_changes_total",
			Help: "Total number of order status changes by target status",
		}, []string{"status"}),
		indexAppendFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storeorders_order_index_append_failures_total",
			Help: "Orders saved without being added to the owner's order list",
		}),
		eventsPublished: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storeorders_events_published_total",
			Help: "Lifecycle events accepted by the event bus",
		}, []string{"type"}),
		eventsDropped: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storeorders_events_dropped_total",
			Help: "Lifecycle events dropped because the bus queue was full or closed",
		}, []string{"type"}),
		listenerFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storeorders_event_listener_failures_total",
			Help: "Event listener invocations that returned an error",
		}, []string{"listener"}),
	}
}

func (m *OrderMetrics) OrderPlaced() {
	m.ordersPlaced.Inc()
}

func (m *OrderMetrics) StatusChanged(status domain.OrderStatus) {
	m.statusChanges.WithLabelValues(string(status)).Inc()
}

func (m *OrderMetrics) IndexAppendFailed() {
	m.indexAppendFailures.Inc()
}

func (m *OrderMetrics) EventPublished(eventType string) {
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

func (m *OrderMetrics) EventDropped(eventType string) {
	m.eventsDropped.WithLabelValues(eventType).Inc()
}

func (m *OrderMetrics) ListenerFailed(listener string) {
	m.listenerFailed.WithLabelValues(listener).Inc()
}
