// Package metrics регистрирует метрики Prometheus для операций с учётными записями.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics хранит счётчики операций и гистограмму хеширования паролей.
type Metrics struct {
	operations *prometheus.CounterVec
	hashing    prometheus.Histogram
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounts",
			Name:      "operations_total",
			Help:      "Account service operations by result.",
		}, []string{"operation", "result"}),
		hashing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "accounts",
			Name:      "password_hash_seconds",
			Help:      "Time spent hashing or verifying passwords.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
	reg.MustRegister(m.operations, m.hashing)
	return m
}

// ObserveOperation увеличивает счётчик операции с результатом result.
func (m *Metrics) ObserveOperation(operation, result string) {
	m.operations.WithLabelValues(operation, result).Inc()
}

// ObserveHashing фиксирует длительность хеширования или проверки пароля.
func (m *Metrics) ObserveHashing(d time.Duration) {
	m.hashing.Observe(d.Seconds())
}
