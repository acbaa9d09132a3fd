package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders confirmed as paid",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of orders that reached a terminal failure",
	}, []string{"reason"})

	ChargesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pix_charges_issued_total",
		Help: "Total number of Pix charges issued at the gateway",
	})

	ChargesReusedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pix_charges_reused_total",
		Help: "Total number of charge requests answered with an existing pending transaction",
	})

	GatewayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pix_gateway_errors_total",
		Help: "Total number of payment gateway errors",
	}, []string{"kind"})

	GatewayRequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pix_gateway_request_latency_seconds",
		Help:    "Latency of payment gateway HTTP calls",
		Buckets: prometheus.DefBuckets,
	})

	WebhooksProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_processed_total",
		Help: "Total number of payment webhooks processed",
	}, []string{"outcome"})

	DownloadsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "download_links_issued_total",
		Help: "Total number of download links minted",
	})

	DownloadsConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "downloads_consumed_total",
		Help: "Total number of successful download consumptions",
	})

	DownloadsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "downloads_rejected_total",
		Help: "Total number of rejected download attempts",
	}, []string{"reason"})

	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total number of transactional email attempts",
	}, []string{"type", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
