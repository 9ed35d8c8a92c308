// Package metrics holds the Prometheus counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents counts payment events by reconciler result.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campground",
		Name:      "webhook_events_total",
		Help:      "Payment webhook events by processing result.",
	}, []string{"result"})

	// ReservationConflicts counts writes rejected by the conflict guard.
	ReservationConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campground",
		Name:      "reservation_conflicts_total",
		Help:      "Reservation writes rejected because of a conflict, by kind.",
	}, []string{"kind"})

	// RateLimitDenied counts requests rejected by the rate limiter.
	RateLimitDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campground",
		Name:      "ratelimit_denied_total",
		Help:      "Requests denied by the rate limiter, by scope.",
	}, []string{"scope"})
)
