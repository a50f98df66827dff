package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for monitoring service health and performance
var (
	OrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookstore_orders_created_total",
			Help: "Total number of orders created",
		},
	)

	PaymentsVerifiedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookstore_payments_verified_total",
			Help: "Total number of payment screenshots verified",
		},
	)

	PaymentsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookstore_payments_rejected_total",
			Help: "Total number of payment screenshots rejected",
		},
	)

	DownloadsServedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookstore_downloads_served_total",
			Help: "Total number of book downloads served",
		},
	)

	OrdersExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookstore_orders_expired_total",
			Help: "Total number of orders lazily marked expired",
		},
	)
)
