// Package metrics defines and registers all custom Prometheus metrics for
// the ReWear exchange API. It is the single source of truth for metric
// names, labels, and help strings. Registration happens at import time via
// promauto against the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rewear"

// ── Exchange metrics ──────────────────────────────────────────────────────────

// TradesCompletedTotal counts trades that reached completed.
// Label:
//   - type: "redeem" or "swap"
var TradesCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trades_completed_total",
		Help:      "Total number of trades completed, by type.",
	},
	[]string{"type"},
)

// TradeErrorsTotal counts exchange protocol runs that failed.
// Label:
//   - reason: short failure cause (e.g. "insufficient_points", "stale_item", "unavailable")
var TradeErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trade_errors_total",
		Help:      "Total number of failed exchange attempts, by reason.",
	},
	[]string{"reason"},
)

// TradeDuration measures how long one protocol run takes end-to-end.
// Label:
//   - type: "redeem" or "swap"
var TradeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "trade_duration_seconds",
		Help:      "Duration of exchange protocol runs.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// ── Listing metrics ───────────────────────────────────────────────────────────

// ItemsCreatedTotal counts newly published listings.
var ItemsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_created_total",
		Help:      "Total number of listings created.",
	},
)

// ── Counter pipeline metrics ──────────────────────────────────────────────────

// CounterQueueDepth tracks the number of pending increments per worker.
// Label:
//   - worker_id: numeric worker index
var CounterQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "counter_queue_depth",
		Help:      "Current number of pending counter updates per dispatcher worker.",
	},
	[]string{"worker_id"},
)

// CounterUpdatesTotal counts applied engagement counter increments.
// Label:
//   - field: "views" or "interest"
var CounterUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "counter_updates_total",
		Help:      "Total number of engagement counter increments applied.",
	},
	[]string{"field"},
)

// CounterDropsTotal counts increments dropped because a worker queue was full.
// Label:
//   - field: "views" or "interest"
var CounterDropsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "counter_drops_total",
		Help:      "Total number of engagement counter increments dropped.",
	},
	[]string{"field"},
)
