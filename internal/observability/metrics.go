// Package observability provides domain metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ListingsCreated counts food listings created, by category.
	ListingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_listings_created_total",
		Help: "Total number of food listings created",
	}, []string{"category"})

	// MessagesSent counts direct messages sent.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodshare_messages_sent_total",
		Help: "Total number of direct messages sent",
	})

	// TransactionsCreated counts transactions opened against listings.
	TransactionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodshare_transactions_created_total",
		Help: "Total number of transactions created",
	})

	// ReviewsCreated counts reviews, by rating.
	ReviewsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_reviews_created_total",
		Help: "Total number of reviews created",
	}, []string{"rating"})

	// CacheLookups counts cache-aside lookups by outcome (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_cache_lookups_total",
		Help: "Cache-aside lookups by outcome",
	}, []string{"outcome"})

	// RedisCommandDuration observes redis round trips by command name.
	RedisCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodshare_redis_command_duration_seconds",
		Help:    "Redis command latency by command",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"command"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WebSocketConnections is the gauge of open notification sockets.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "foodshare_websocket_connections",
		Help: "Number of open notification WebSocket connections",
	})

	// NotificationsPublished counts realtime events by type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_notifications_published_total",
		Help: "Total realtime notification events published, by type",
	}, []string{"event_type"})
)

// WebSocketDrops counts notification frames dropped for a slow or closed client.
var WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "foodshare_websocket_drops_total",
	Help: "Notification frames dropped before reaching a websocket client",
}, []string{"reason"})
