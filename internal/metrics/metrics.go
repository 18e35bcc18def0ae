package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fee_backend_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fee_backend_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PaymentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fee_backend_payments_recorded_total",
			Help: "Fee payments recorded by mode",
		},
		[]string{"mode"},
	)

	PaymentAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fee_backend_payment_amount_rupees_total",
			Help: "Total rupees collected by mode",
		},
		[]string{"mode"},
	)

	GatewayOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fee_backend_gateway_orders_total",
			Help: "Razorpay orders by outcome (created, success, failed, cancelled)",
		},
		[]string{"outcome"},
	)
)
