package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sportsiq_query_duration_seconds",
			Help:    "Query processing duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"response_source"},
	)

	ClassificationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsiq_classification_total",
			Help: "Total classifications by branch taken",
		},
		[]string{"branch"},
	)

	ClassificationConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sportsiq_classification_confidence",
			Help:    "Intent classification confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	EntityMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sportsiq_entity_mismatch_total",
			Help: "Total responses flagged for entity mismatch",
		},
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsiq_feedback_total",
			Help: "Total feedback submissions by rating",
		},
		[]string{"rating"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsiq_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsiq_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	InsightsGenerated = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sportsiq_insights_generated",
			Help: "Insights produced by the last generator run, by priority",
		},
		[]string{"priority"},
	)

	TrackedQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sportsiq_tracked_queries_total",
			Help: "Total query records handed to the tracker",
		},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(ClassificationTotal)
	prometheus.MustRegister(ClassificationConfidence)
	prometheus.MustRegister(EntityMismatchTotal)
	prometheus.MustRegister(FeedbackTotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(InsightsGenerated)
	prometheus.MustRegister(TrackedQueriesTotal)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
