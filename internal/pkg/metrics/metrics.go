// Package metrics defines and registers all custom Prometheus metrics for the
// companion API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "companion"

// ── Interaction metrics ───────────────────────────────────────────────────────

// InteractionsTotal counts finished interactions.
// Label:
//   - outcome: "ignored", "recharge_required", "crisis", "replied", "failed"
var InteractionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interactions_total",
		Help:      "Total number of interactions, by outcome.",
	},
	[]string{"outcome"},
)

// CrisisDetectionsTotal counts crisis halts.
// Label:
//   - source: "classifier" (model said crisis) or "fail_safe" (classifier unreachable)
var CrisisDetectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "crisis_detections_total",
		Help:      "Total number of turns halted on the crisis path.",
	},
	[]string{"source"},
)

// RefundsTotal counts compensating credits after a debit.
// Labels:
//   - reason: "crisis" or "responder_failure"
//   - result: "ok" or "error"
var RefundsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refunds_total",
		Help:      "Total number of interaction refunds, by reason and result.",
	},
	[]string{"reason", "result"},
)

// AICallDuration measures calls to the generative AI service.
// Labels:
//   - call: "crisis", "respond", "speech"
//   - result: "ok" or "error"
var AICallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ai_call_duration_seconds",
		Help:      "Duration of outbound generative AI calls.",
		Buckets:   []float64{.1, .25, .5, 1, 2, 4, 8, 16, 32},
	},
	[]string{"call", "result"},
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// LedgerOperationsTotal counts ledger transactions.
// Labels:
//   - op: "debit", "credit", "set", "add", "usage"
//   - result: "ok", "insufficient", "not_found", "error"
var LedgerOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Total number of ledger transactions, by operation and result.",
	},
	[]string{"op", "result"},
)

// RewardsGrantedTotal counts approved task rewards.
// Label:
//   - task_id: catalog id of the rewarded task
var RewardsGrantedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rewards_granted_total",
		Help:      "Total number of task rewards granted, by task.",
	},
	[]string{"task_id"},
)

// ── Alert metrics ─────────────────────────────────────────────────────────────

// AlertsCreatedTotal counts CrisisAlert records written.
var AlertsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_created_total",
		Help:      "Total number of crisis alert records created.",
	},
)

// AlertsDroppedTotal counts alert requests rejected because the queue was full.
var AlertsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_dropped_total",
		Help:      "Total number of alert requests dropped on a full dispatcher queue.",
	},
)

// AlertQueueDepth tracks pending alert requests per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AlertQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "alert_queue_depth",
		Help:      "Current number of alert requests pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
