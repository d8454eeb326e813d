package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polimarket_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polimarket_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polimarket_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Realtime chat
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "polimarket_ws_connections",
			Help: "Admitted websocket connections",
		},
	)

	WSRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polimarket_ws_rejected_total",
			Help: "Websocket connections refused at admission",
		},
		[]string{"reason"},
	)

	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "polimarket_ws_active_rooms",
			Help: "Chat rooms with at least one live connection",
		},
	)

	MessagesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polimarket_messages_persisted_total",
			Help: "Chat messages stored",
		},
		[]string{"source"}, // "ws" or "rest"
	)

	BroadcastFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polimarket_broadcast_failures_total",
			Help: "Connections dropped because a broadcast send failed",
		},
	)

	// Marketplace
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polimarket_users_registered_total",
			Help: "Accounts created",
		},
	)

	OrdersTransitioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polimarket_orders_total",
			Help: "Order state changes by resulting status",
		},
		[]string{"status"},
	)
)
