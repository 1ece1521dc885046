package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "townsquare_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "townsquare_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ModerationDecisions counts gate decisions by resulting status.
	ModerationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "townsquare_moderation_decisions_total",
		Help: "Total number of moderation decisions by target status",
	}, []string{"status"})

	// BlocklistRefreshes counts blocklist reloads from the source, by cache kind.
	BlocklistRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "townsquare_blocklist_refresh_total",
		Help: "Total number of blocklist reloads from the backing source",
	}, []string{"cache"})

	// FeedPagesServed counts feed pages by pagination mode.
	FeedPagesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "townsquare_feed_pages_total",
		Help: "Total number of feed pages served",
	}, []string{"mode"})

	// InvalidCursors counts rejected pagination cursors.
	InvalidCursors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "townsquare_feed_invalid_cursors_total",
		Help: "Total number of rejected feed cursors",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
