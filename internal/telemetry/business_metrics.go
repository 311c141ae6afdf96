// Package telemetry holds Prometheus metrics for business-level
// observability of the order engine.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the checkout funnel and
// order lifecycle.
type BusinessMetrics struct {
	// Checkout funnel
	CheckoutAttempts  *prometheus.CounterVec
	CheckoutCompleted prometheus.Counter
	CheckoutRetries   prometheus.Counter
	CheckoutConflicts prometheus.Counter

	// Orders
	OrdersCreated    *prometheus.CounterVec
	OrderValue       prometheus.Histogram
	OrderTransitions *prometheus.CounterVec
	OrdersCancelled  prometheus.Counter

	// Inventory
	StockReservations   prometheus.Counter
	StockRestores       prometheus.Counter
	InsufficientStock   prometheus.Counter
	StockWriteConflicts prometheus.Counter

	// Notifications
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics on reg.
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	const namespace = "chomart"
	const subsystem = "orders"

	factory := promauto.With(reg)

	return &BusinessMetrics{
		CheckoutAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_attempts_total",
				Help:      "Total checkout attempts by outcome",
			},
			[]string{"outcome"}, // outcome: success, conflict, insufficient_stock, invalid, error
		),
		CheckoutCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_completed_total",
				Help:      "Total successful checkouts",
			},
		),
		CheckoutRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_retries_total",
				Help:      "Total checkout transaction retries after version conflicts",
			},
		),
		CheckoutConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_conflicts_total",
				Help:      "Total checkouts abandoned after exhausting conflict retries",
			},
		),
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "created_total",
				Help:      "Total orders created",
			},
			[]string{"category", "payment_method"},
		),
		OrderValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "value_vnd",
				Help:      "Order grand total in VND",
				Buckets:   prometheus.ExponentialBuckets(10000, 4, 10),
			},
		),
		OrderTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transitions_total",
				Help:      "Total order status transitions",
			},
			[]string{"from", "to"},
		),
		OrdersCancelled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cancelled_total",
				Help:      "Total cancelled orders",
			},
		),
		StockReservations: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inventory",
				Name:      "reservations_total",
				Help:      "Total successful stock reservations",
			},
		),
		StockRestores: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inventory",
				Name:      "restores_total",
				Help:      "Total stock restorations from cancellations",
			},
		),
		InsufficientStock: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inventory",
				Name:      "insufficient_stock_total",
				Help:      "Total reservations rejected for insufficient stock",
			},
		),
		StockWriteConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inventory",
				Name:      "write_conflicts_total",
				Help:      "Total conditioned stock writes lost to a concurrent update",
			},
		),
		NotificationsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "sent_total",
				Help:      "Total order notifications published",
			},
			[]string{"event"},
		),
		NotificationsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "failed_total",
				Help:      "Total order notifications that failed to publish",
			},
			[]string{"event"},
		),
	}
}
