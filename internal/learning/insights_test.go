package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsiq/backend/internal/storage/memory"
	"github.com/sportsiq/backend/internal/storage/models"
	"github.com/sportsiq/backend/pkg/config"
)

func testLearningConfig() config.LearningConfig {
	return config.LearningConfig{
		WindowDays:             7,
		LowConfidenceThreshold: 0.6,
		PatternGapMinCount:     3,
		PatternGapMediumCount:  5,
		PatternGapHighCount:    10,
		EntityMissMinCount:     3,
		LowConfidenceMinCount:  5,
		LowConfidenceHighCount: 20,
		NegativeMinCount:       3,
		SuggestSampleLimit:     50,
		SuggestMinSample:       4,
		SuggestWordFrequency:   0.3,
		SuggestMaxWords:        5,
	}
}

type seedOpt func(*models.QueryRecord)

func withIntent(intent string) seedOpt {
	return func(r *models.QueryRecord) {
		r.DetectedIntent = &intent
	}
}

func withFallback() seedOpt {
	return func(r *models.QueryRecord) {
		r.WasLLMClassified = true
		r.MatchedPatternID = nil
	}
}

func withConfidence(c float64) seedOpt {
	return func(r *models.QueryRecord) {
		r.IntentConfidence = &c
	}
}

func withMismatch() seedOpt {
	return func(r *models.QueryRecord) {
		details := "query asked about [a] but response discusses [b]"
		r.EntityMismatch = true
		r.MismatchDetails = &details
	}
}

func withRating(rating int) seedOpt {
	return func(r *models.QueryRecord) {
		r.FeedbackRating = &rating
	}
}

func withAge(age time.Duration) seedOpt {
	return func(r *models.QueryRecord) {
		r.CreatedAt = time.Now().Add(-age)
	}
}

func seed(t *testing.T, store *memory.Store, id, query string, opts ...seedOpt) {
	t.Helper()

	record := &models.QueryRecord{
		ID:              id,
		RawQuery:        query,
		NormalizedQuery: query,
		CreatedAt:       time.Now(),
	}
	for _, opt := range opts {
		opt(record)
	}
	require.NoError(t, store.InsertQueryRecord(record))
}

func seedN(t *testing.T, store *memory.Store, prefix string, n int, query string, opts ...seedOpt) {
	t.Helper()
	for i := 0; i < n; i++ {
		seed(t, store, prefix+string(rune('a'+i)), query, opts...)
	}
}

func TestGenerateInsights_EmptyHistory(t *testing.T) {
	service := NewService(memory.NewStore(), testLearningConfig())

	insights, err := service.GenerateInsights(0)
	require.NoError(t, err)
	assert.Empty(t, insights)
}

func TestGenerateInsights_PatternGapPriorities(t *testing.T) {
	store := memory.NewStore()
	seedN(t, store, "pred-", 11, "who takes it tonight", withFallback(), withIntent("PREDICTION"), withConfidence(0.7))
	seedN(t, store, "sched-", 5, "lakers next outing", withFallback(), withIntent("GAME_SCHEDULE"), withConfidence(0.8))
	seedN(t, store, "stand-", 3, "league picture please", withFallback(), withIntent("STANDINGS"), withConfidence(0.9))
	seedN(t, store, "rules-", 2, "handball clarification", withFallback(), withIntent("RULES_EXPLAINER"), withConfidence(0.9))

	service := NewService(store, testLearningConfig())
	insights, err := service.GenerateInsights(7)
	require.NoError(t, err)

	var gaps []models.LearningInsight
	for _, insight := range insights {
		if insight.Type == models.InsightPatternGap {
			gaps = append(gaps, insight)
		}
	}
	require.Len(t, gaps, 3)

	assert.Equal(t, models.PriorityHigh, gaps[0].Priority)
	assert.Equal(t, 11, gaps[0].Occurrences)
	assert.Contains(t, gaps[0].Description, "PREDICTION")
	assert.Equal(t, "who takes it tonight", gaps[0].QueryExample)

	assert.Equal(t, models.PriorityMedium, gaps[1].Priority)
	assert.Equal(t, 5, gaps[1].Occurrences)

	assert.Equal(t, models.PriorityLow, gaps[2].Priority)
	assert.Equal(t, 3, gaps[2].Occurrences)
}

func TestGenerateInsights_EntityMissRule(t *testing.T) {
	store := memory.NewStore()
	seedN(t, store, "mm-", 3, "haaland stats", withMismatch(), withConfidence(1.0))
	seedN(t, store, "ok-", 4, "lakers score", withConfidence(1.0))

	service := NewService(store, testLearningConfig())
	insights, err := service.GenerateInsights(7)
	require.NoError(t, err)

	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightEntityMiss, insights[0].Type)
	assert.Equal(t, models.PriorityHigh, insights[0].Priority)
	assert.Equal(t, 3, insights[0].Occurrences)
}

func TestGenerateInsights_LowConfidenceRule(t *testing.T) {
	store := memory.NewStore()
	seedN(t, store, "low-", 5, "vague question", withConfidence(0.4))

	service := NewService(store, testLearningConfig())
	insights, err := service.GenerateInsights(7)
	require.NoError(t, err)

	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightLowConfidence, insights[0].Type)
	assert.Equal(t, models.PriorityMedium, insights[0].Priority)

	// 20 or more low-confidence classifications escalate to HIGH.
	seedN(t, store, "more-", 15, "another vague one", withConfidence(0.3))
	insights, err = service.GenerateInsights(7)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, models.PriorityHigh, insights[0].Priority)
}

func TestGenerateInsights_NegativeFeedbackRule(t *testing.T) {
	store := memory.NewStore()
	seedN(t, store, "neg-", 3, "bad answer here", withRating(models.RatingNegative), withConfidence(1.0))
	seedN(t, store, "pos-", 10, "great answer", withRating(models.RatingPositive), withConfidence(1.0))

	service := NewService(store, testLearningConfig())
	insights, err := service.GenerateInsights(7)
	require.NoError(t, err)

	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightIntentConfusion, insights[0].Type)
	assert.Equal(t, models.PriorityHigh, insights[0].Priority)
	assert.Equal(t, 3, insights[0].Occurrences)
}

func TestGenerateInsights_BelowThresholdsProducesNothing(t *testing.T) {
	store := memory.NewStore()
	seedN(t, store, "fb-", 2, "fallback query", withFallback(), withIntent("PREDICTION"), withConfidence(0.9))
	seedN(t, store, "mm-", 2, "mismatched", withMismatch(), withConfidence(1.0))
	seedN(t, store, "low-", 4, "unsure", withConfidence(0.2))
	seedN(t, store, "neg-", 2, "disliked", withRating(models.RatingNegative), withConfidence(1.0))

	service := NewService(store, testLearningConfig())
	insights, err := service.GenerateInsights(7)
	require.NoError(t, err)
	assert.Empty(t, insights)
}

func TestGenerateInsights_WindowExcludesOldRecords(t *testing.T) {
	store := memory.NewStore()
	seedN(t, store, "old-", 5, "ancient fallback", withFallback(), withIntent("PREDICTION"), withConfidence(0.9), withAge(10*24*time.Hour))

	service := NewService(store, testLearningConfig())
	insights, err := service.GenerateInsights(7)
	require.NoError(t, err)
	assert.Empty(t, insights)
}

func TestGenerateInsights_SortedByPriority(t *testing.T) {
	store := memory.NewStore()
	// A LOW pattern gap, a MEDIUM low-confidence cluster, and a HIGH
	// entity-miss cluster, seeded in that order.
	seedN(t, store, "gap-", 3, "fallback shape", withFallback(), withIntent("STANDINGS"), withConfidence(0.9))
	seedN(t, store, "low-", 5, "unsure query", withConfidence(0.4))
	seedN(t, store, "mm-", 3, "off topic answer", withMismatch(), withConfidence(1.0))

	service := NewService(store, testLearningConfig())
	insights, err := service.GenerateInsights(7)
	require.NoError(t, err)

	require.Len(t, insights, 3)
	assert.Equal(t, models.PriorityHigh, insights[0].Priority)
	assert.Equal(t, models.PriorityMedium, insights[1].Priority)
	assert.Equal(t, models.PriorityLow, insights[2].Priority)
}

func TestStats(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "q1", "lakers score", withConfidence(1.0), withRating(models.RatingPositive))
	seed(t, store, "q2", "haaland goals", withConfidence(0.5), withRating(models.RatingNegative))
	seed(t, store, "q3", "who wins tonight", withFallback(), withIntent("PREDICTION"), withConfidence(0.7))

	service := NewService(store, testLearningConfig())
	stats, err := service.Stats()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalQueries)
	assert.Equal(t, 1, stats.FeedbackPositive)
	assert.Equal(t, 1, stats.FeedbackNegative)
	assert.InDelta(t, (1.0+0.5+0.7)/3, stats.AvgConfidence, 1e-9)
	assert.InDelta(t, 1.0/3, stats.LLMFallbackRate, 1e-9)
	assert.Len(t, stats.RecentQueries, 3)
	assert.Equal(t, "who wins tonight", stats.RecentQueries[0].RawQuery)
}

func TestStats_EmptyHistory(t *testing.T) {
	service := NewService(memory.NewStore(), testLearningConfig())

	stats, err := service.Stats()
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalQueries)
	assert.Zero(t, stats.AvgConfidence)
	assert.Zero(t, stats.LLMFallbackRate)
	assert.Zero(t, stats.CacheHitRate)
}
