// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "splitledger"

// Metrics groups the service's collectors.
type Metrics struct {
	ExpensesRecorded   prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	SettlementSize     prometheus.Histogram
	CacheRequests      *prometheus.CounterVec
	RPCDuration        *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ExpensesRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Expenses committed to the ledger.",
		}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expense_validation_failures_total",
			Help:      "Expenses rejected by validation, by kind.",
		}, []string{"kind"}),
		SettlementSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_transactions",
			Help:      "Transactions in each computed settlement plan.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_cache_requests_total",
			Help:      "Balance cache lookups, by result.",
		}, []string{"result"}),
		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Latency of RPC handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
}

// CacheHit records a balance cache hit.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues("hit").Inc()
}

// CacheMiss records a balance cache miss.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues("miss").Inc()
}

// ExpenseRecorded counts a committed expense.
func (m *Metrics) ExpenseRecorded() {
	if m == nil {
		return
	}
	m.ExpensesRecorded.Inc()
}

// ValidationFailed counts an expense rejected with kind.
func (m *Metrics) ValidationFailed(kind string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(kind).Inc()
}

// SettlementComputed observes the size of a settlement plan.
func (m *Metrics) SettlementComputed(transactions int) {
	if m == nil {
		return
	}
	m.SettlementSize.Observe(float64(transactions))
}
