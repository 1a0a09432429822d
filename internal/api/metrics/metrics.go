// Package metrics defines and registers all custom Prometheus metrics for
// the tour-booking API. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry at
// package init via promauto; the /metrics route exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "natours"

// BookingsFulfilledTotal counts bookings recorded from verified checkout
// webhook events.
var BookingsFulfilledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_fulfilled_total",
		Help:      "Total number of bookings recorded from checkout completions.",
	},
)

// CheckoutSessionsTotal counts checkout sessions created, by outcome.
// Label:
//   - result: "created" or "error"
var CheckoutSessionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_sessions_total",
		Help:      "Total number of payment checkout sessions requested, by result.",
	},
	[]string{"result"},
)

// ReviewsWrittenTotal counts review writes that triggered a rating recompute.
// Label:
//   - op: "create", "update", or "delete"
var ReviewsWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_written_total",
		Help:      "Total number of review writes, by operation.",
	},
	[]string{"op"},
)

// RateLimitRejectedTotal counts requests rejected by the API rate limiter.
var RateLimitRejectedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejected_total",
		Help:      "Total number of requests rejected with 429 by the rate limiter.",
	},
)

// AuthFailuresTotal counts failed credential verifications.
// Label:
//   - reason: "missing", "invalid", "expired", "gone", "password_changed"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected credential verifications, by reason.",
	},
	[]string{"reason"},
)
