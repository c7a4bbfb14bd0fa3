package metrics

import "github.com/prometheus/client_golang/prometheus"

// IdempotencyMetrics считает повторы запросов и работу очистки ключей.
type IdempotencyMetrics struct {
	outcomes       *prometheus.CounterVec
	cleanupRuns    *prometheus.CounterVec
	cleanupDeleted prometheus.Counter
	lastDeleted    prometheus.Gauge
}

// NewIdempotencyMetrics регистрирует метрики идемпотентности; nil означает DefaultRegisterer.
func NewIdempotencyMetrics(registerer prometheus.Registerer) *IdempotencyMetrics {
	registerer = registererOrDefault(registerer)

	return &IdempotencyMetrics{
		outcomes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storeorders_idempotency_requests_total",
			Help: "Requests carrying an Idempotency-Key grouped by outcome",
		}, []string{"outcome"}),
		cleanupRuns: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storeorders_idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup runs grouped by result",
		}, []string{"result"}),
		cleanupDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storeorders_idempotency_cleanup_deleted_total",
			Help: "Total number of deleted expired idempotency records",
		}),
		lastDeleted: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storeorders_idempotency_cleanup_last_deleted",
			Help: "Number of deleted records during the last cleanup run",
		}),
	}
}

// RequestOutcome фиксирует исход обработки запроса с ключом: started, replayed, conflict, in_progress.
func (m *IdempotencyMetrics) RequestOutcome(outcome string) {
	m.outcomes.WithLabelValues(outcome).Inc()
}

// CleanupSucceeded фиксирует успешный проход очистки.
func (m *IdempotencyMetrics) CleanupSucceeded(deleted int) {
	m.cleanupRuns.WithLabelValues("ok").Inc()
	m.cleanupDeleted.Add(float64(deleted))
	m.lastDeleted.Set(float64(deleted))
}

// CleanupFailed фиксирует неудачный проход очистки.
func (m *IdempotencyMetrics) CleanupFailed() {
	m.cleanupRuns.WithLabelValues("error").Inc()
}
