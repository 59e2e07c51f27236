package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlacesDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_scout_places_discovered_total",
		Help: "The total number of places returned by discovery",
	}, []string{"result"})

	ReviewsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_scout_reviews_collected_total",
		Help: "Collected reviews by outcome (inserted, existing, filtered, malformed)",
	}, []string{"result"})

	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_scout_provider_requests_total",
		Help: "Requests to the review provider by engine and status",
	}, []string{"engine", "status"})

	ReviewsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_scout_reviews_scored_total",
		Help: "Scored reviews by score source",
	}, []string{"source"})

	ScoringWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_scout_scoring_warnings_total",
		Help: "Reviews scored with the heuristic fallback because the external judge failed",
	})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "review_scout_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_scout_llm_requests_total",
		Help: "LLM requests by status",
	}, []string{"status"})

	DedupGroups = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "review_scout_dedup_groups",
		Help: "Number of dedup groups formed in the last cycle",
	})

	DedupIneligible = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "review_scout_dedup_ineligible",
		Help: "Number of reviews too short to group in the last cycle",
	})

	ShortlistSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "review_scout_shortlist_size",
		Help: "Number of entries in the last shortlist",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_scout_status_transitions_total",
		Help: "Applied lifecycle transitions",
	}, []string{"from", "to"})

	CycleRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_scout_cycle_runs_total",
		Help: "Curation cycles by outcome",
	}, []string{"status"})

	CycleDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "review_scout_cycle_duration_seconds",
		Help:    "Duration in seconds of a curation cycle",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	})

	LastCycleSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "review_scout_last_cycle_success_timestamp_seconds",
		Help: "Unix time of the last successful curation cycle",
	})
)
