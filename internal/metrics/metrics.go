// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Classifications counts emotion classification attempts by provider and outcome.
	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtunes_classifications_total",
			Help: "Emotion classification attempts",
		},
		[]string{"provider", "outcome"}, // outcome: ok, no_face, error
	)

	// DetectedEmotions counts dominant emotions returned by the classifier.
	DetectedEmotions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtunes_detected_emotions_total",
			Help: "Dominant emotions detected in uploaded images",
		},
		[]string{"emotion"},
	)

	// CatalogSearches counts catalog searches by outcome.
	CatalogSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtunes_catalog_searches_total",
			Help: "Music catalog keyword searches",
		},
		[]string{"outcome"}, // outcome: ok, empty, error
	)

	// VideoResolutions counts resolved links by where the link came from.
	VideoResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtunes_video_resolutions_total",
			Help: "Video links produced, by source",
		},
		[]string{"source"}, // watch, fallback_no_match, fallback_error, fallback_open_circuit, fallback_unconfigured
	)

	// PipelineRuns counts recommendation pipeline runs by outcome.
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtunes_pipeline_runs_total",
			Help: "Recommendation pipeline invocations",
		},
		[]string{"outcome"}, // outcome: ok, short, empty, catalog_error
	)

	// PipelineDuration observes end-to-end pipeline latency.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodtunes_pipeline_duration_seconds",
			Help:    "Recommendation pipeline latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moodtunes_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)
