// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerOperations counts ledger operations by name and outcome.
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "splitledger",
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Ledger operations by operation and result.",
}, []string{"op", "result"})

// EventEmitFailures counts activities that could not be delivered.
var EventEmitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "splitledger",
	Subsystem: "events",
	Name:      "emit_failures_total",
	Help:      "Activity emissions that failed and were dropped.",
}, []string{"type"})

// PlanCacheLookups counts settlement plan cache lookups.
var PlanCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "splitledger",
	Subsystem: "plan_cache",
	Name:      "lookups_total",
	Help:      "Settlement plan cache lookups by result (hit or miss).",
}, []string{"result"})

// StaleWrites counts commits rejected because the group version moved.
var StaleWrites = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "splitledger",
	Subsystem: "ledger",
	Name:      "stale_writes_total",
	Help:      "Group commits rejected by the optimistic version check.",
})

// RPCDuration tracks Connect RPC latency.
var RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "splitledger",
	Subsystem: "rpc",
	Name:      "duration_seconds",
	Help:      "Connect RPC duration by procedure and code.",
	Buckets:   prometheus.DefBuckets,
}, []string{"procedure", "code"})

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
