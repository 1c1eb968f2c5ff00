package models

import "time"

// ResponseSource identifies where the answer text a query received came from.
type ResponseSource string

const (
	SourceCache          ResponseSource = "CACHE"
	SourceVerifiedStats  ResponseSource = "VERIFIED_STATS"
	SourceExternalSearch ResponseSource = "EXTERNAL_SEARCH"
	SourceOwnPrediction  ResponseSource = "OWN_PREDICTION"
	SourceLLM            ResponseSource = "LLM"
	SourceHybrid         ResponseSource = "HYBRID"
)

// Feedback ratings are binary: 1 means the answer was wrong or unhelpful,
// 5 means it was helpful. No other value is stored.
const (
	RatingNegative = 1
	RatingPositive = 5
)

// QueryRecord is the persisted trace of one classified user query. It is
// immutable at creation; only feedback and mismatch findings are attached
// after the fact.
type QueryRecord struct {
	ID              string
	RawQuery        string
	NormalizedQuery string
	CreatedAt       time.Time

	DetectedIntent   *string
	IntentConfidence *float64
	MatchedPatternID *string
	WasLLMClassified bool
	EntitiesDetected []string

	Category string
	Sport    string
	Team     string
	League   string

	ResponseSource ResponseSource
	CacheHit       bool
	LatencyMS      int
	Citations      []string
	ResponseLength int

	EntityMismatch  bool
	MismatchDetails *string
	FeedbackRating  *int
	FeedbackComment *string
	FeedbackAt      *time.Time

	UserID string
}

// InsightType classifies the kind of classifier weakness an insight reports.
type InsightType string

const (
	InsightPatternGap      InsightType = "PATTERN_GAP"
	InsightEntityMiss      InsightType = "ENTITY_MISS"
	InsightIntentConfusion InsightType = "INTENT_CONFUSION"
	InsightLowConfidence   InsightType = "LOW_CONFIDENCE"
)

type InsightPriority string

const (
	PriorityHigh   InsightPriority = "HIGH"
	PriorityMedium InsightPriority = "MEDIUM"
	PriorityLow    InsightPriority = "LOW"
)

// LearningInsight is a derived statement about a systemic classifier
// weakness. Insights are recomputed from query history on every run and
// never persisted.
type LearningInsight struct {
	Type         InsightType     `json:"type"`
	Description  string          `json:"description"`
	QueryExample string          `json:"query_example"`
	Occurrences  int             `json:"occurrences"`
	Priority     InsightPriority `json:"priority"`
}

// WindowCounts are the per-window tallies the insight rules consume,
// computed by the store in a single scan.
type WindowCounts struct {
	Total            int
	Fallback         int
	FallbackByIntent map[string]int
	FallbackExamples map[string]string
	Mismatches       int
	MismatchExample  string
	LowConfidence    int
	LowConfExample   string
	Negative         int
	NegativeExample  string
}

// QueryStats is the aggregate view over the whole history plus a rolling
// 24h window. Rates are 0 on an empty history, never an error.
type QueryStats struct {
	TotalQueries     int            `json:"total_queries"`
	QueriesLast24h   int            `json:"queries_last_24h"`
	AvgConfidence    float64        `json:"avg_confidence"`
	FeedbackPositive int            `json:"feedback_positive"`
	FeedbackNegative int            `json:"feedback_negative"`
	MismatchCount    int            `json:"mismatch_count"`
	LLMFallbackRate  float64        `json:"llm_fallback_rate"`
	CacheHitRate     float64        `json:"cache_hit_rate"`
	TopCategories    map[string]int `json:"top_categories"`
	RecentQueries    []QuerySummary `json:"recent_queries"`
}

type QuerySummary struct {
	ID             string    `json:"id"`
	RawQuery       string    `json:"raw_query"`
	DetectedIntent string    `json:"detected_intent,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
