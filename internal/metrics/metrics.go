package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingress metrics
	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hooktap_webhooks_received_total",
			Help: "Total number of webhooks received",
		},
		[]string{"event_type"},
	)

	WebhookBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hooktap_webhook_bytes_total",
			Help: "Total bytes of webhook payload data received",
		},
	)

	// Store metrics
	StoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hooktap_store_size",
			Help: "Current number of webhooks retained in the store",
		},
	)

	ClearsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hooktap_clears_total",
			Help: "Total number of clear-all operations",
		},
	)

	// Fanout metrics
	ObserversConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hooktap_observers_connected",
			Help: "Number of currently connected observers",
		},
	)

	FanoutDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hooktap_fanout_dropped_total",
			Help: "Total number of fanout messages dropped due to slow observers",
		},
	)
)
