// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names emitted by gamereview components.
const (
	// Client metrics.
	MetricAnalyses        = "gamereview_analyses_total"
	MetricAnalysisErrors  = "gamereview_analysis_errors_total"
	MetricAnalysisSeconds = "gamereview_analysis_duration_seconds"
	MetricGameListings    = "gamereview_game_listings_total"

	// Credential metrics.
	MetricCredentials      = "gamereview_credentials_provisioned_total"
	MetricCredentialErrors = "gamereview_credential_failures_total"

	// Session metrics.
	MetricFramesDiscarded = "gamereview_frames_discarded_total"
	MetricOpenSessions    = "gamereview_open_sessions"

	// Listing cache metrics.
	MetricCacheHits   = "gamereview_listing_cache_hits_total"
	MetricCacheMisses = "gamereview_listing_cache_misses_total"
	MetricCacheSize   = "gamereview_listing_cache_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// AddGauge adjusts a gauge metric by delta.
	AddGauge(name string, delta int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
