// Package obsv registers the process-wide Prometheus metrics and exposes
// the scrape handler consumed by the inspection server. Grounded on the
// promauto Vec-registration style used for trading-engine observability
// elsewhere in this domain.
package obsv

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StreamState is 0..6 per stream.State ordinal, one gauge per venue.
	StreamState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arbmon_stream_state",
			Help: "Current connection state of a stream client (0=Idle..6=Terminated)",
		},
		[]string{"venue"},
	)

	StreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbmon_stream_errors_total",
			Help: "Stream errors by venue and taxonomy kind",
		},
		[]string{"venue", "kind"},
	)

	StreamFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbmon_stream_frames_total",
			Help: "Frames applied to the price cache by venue",
		},
		[]string{"venue"},
	)

	StreamReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbmon_stream_reconnects_total",
			Help: "Reconnect attempts by venue",
		},
		[]string{"venue"},
	)

	StreamBackpressureDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbmon_stream_backpressure_drops_total",
			Help: "Update notifications dropped because a venue's downstream channel was full",
		},
		[]string{"venue"},
	)

	EngineTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arbmon_engine_tick_duration_seconds",
			Help:    "Wall time of one arbitrage engine evaluation tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	EngineSnapshotSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arbmon_engine_snapshot_size",
			Help: "Number of opportunities in the current published snapshot",
		},
	)

	EnginePairsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbmon_engine_pairs_skipped_total",
			Help: "Pairs skipped during a tick, by reason",
		},
		[]string{"reason"},
	)
)

// Handler returns the HTTP handler for the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
