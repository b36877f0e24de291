package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records commission ledger outcomes. Ledger failures never
// block order transitions, so the failure counter is the primary alerting
// signal for wallet drift.
type LedgerMetrics struct {
	applied  *prometheus.CounterVec
	reversed *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buyback",
		Name:      "commission_applied_total",
		Help:      "Commission applications recorded on partner wallets.",
	}, []string{"category"})
	reversed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buyback",
		Name:      "commission_reversed_total",
		Help:      "Commission rollbacks recorded on partner wallets.",
	}, []string{"category"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buyback",
		Name:      "ledger_failures_total",
		Help:      "Ledger operations that failed without blocking the order transition.",
	}, []string{"operation"})
	reg.MustRegister(applied, reversed, failures)
	return &LedgerMetrics{
		applied:  applied,
		reversed: reversed,
		failures: failures,
	}
}

// IncApplied increments the applied counter for the given category.
func (l *LedgerMetrics) IncApplied(category string) {
	if l == nil || l.applied == nil {
		return
	}
	l.applied.WithLabelValues(normalizeLabel(category)).Inc()
}

// IncReversed increments the rollback counter for the given category.
func (l *LedgerMetrics) IncReversed(category string) {
	if l == nil || l.reversed == nil {
		return
	}
	l.reversed.WithLabelValues(normalizeLabel(category)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (l *LedgerMetrics) IncFailure(operation string) {
	if l == nil || l.failures == nil {
		return
	}
	l.failures.WithLabelValues(normalizeLabel(operation)).Inc()
}
