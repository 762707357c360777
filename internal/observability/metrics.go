package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the map
// engine: the live feed, the layer reconciler, and optional enrichment.
type Metrics struct {
	// Live feed metrics.
	Fetches         *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration   prometheus.Histogram
	RecordsDropped  prometheus.Counter
	StaleDiscarded  prometheus.Counter
	SnapshotsTotal  prometheus.Counter
	SnapshotPoints  prometheus.Gauge
	FeedSubscribers prometheus.Gauge

	// Layer reconciliation metrics.
	Reconciliations  prometheus.Counter
	ReconcilesQueued prometheus.Counter
	AttachedLayers   prometheus.Gauge
	LayersAttached   prometheus.Counter
	LayersDetached   prometheus.Counter

	// Geocoding enrichment metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Alert feed metrics.
	AlertsPublished    prometheus.Counter
	AlertPublishErrors prometheus.Counter
}

// NewMetrics creates and registers all map engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Fetches,
		m.FetchDuration,
		m.RecordsDropped,
		m.StaleDiscarded,
		m.SnapshotsTotal,
		m.SnapshotPoints,
		m.FeedSubscribers,
		m.Reconciliations,
		m.ReconcilesQueued,
		m.AttachedLayers,
		m.LayersAttached,
		m.LayersDetached,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.AlertsPublished,
		m.AlertPublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// construct components repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "report_fetches_total",
			Help:      "Report API fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "harbornet",
			Name:      "report_fetch_duration_seconds",
			Help:      "Duration of one reports API fetch including normalization.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "records_dropped_total",
			Help:      "Raw records dropped for malformed or out-of-range coordinates.",
		}),
		StaleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "stale_responses_discarded_total",
			Help:      "Fetch responses discarded because a newer request epoch was issued.",
		}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "snapshots_published_total",
			Help:      "Snapshots published to live feed subscribers.",
		}),
		SnapshotPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "harbornet",
			Name:      "snapshot_points",
			Help:      "Point count of the most recently published snapshot.",
		}),
		FeedSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "harbornet",
			Name:      "feed_subscribers",
			Help:      "Current live feed subscriber count.",
		}),
		Reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "reconciliations_total",
			Help:      "Completed layer reconciliation passes.",
		}),
		ReconcilesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "reconciles_queued_total",
			Help:      "Reconciliation requests coalesced behind an in-flight pass.",
		}),
		AttachedLayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "harbornet",
			Name:      "attached_layers",
			Help:      "Overlay layers currently attached to the rendering surface.",
		}),
		LayersAttached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "layers_attached_total",
			Help:      "Overlay layers attached across all reconciliation passes.",
		}),
		LayersDetached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "layers_detached_total",
			Help:      "Overlay layers detached across all reconciliation passes.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "alerts_published_total",
			Help:      "Snapshot summaries published to the early-warning alert feed.",
		}),
		AlertPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbornet",
			Name:      "alert_publish_errors_total",
			Help:      "Failed alert feed publishes.",
		}),
	}
}
