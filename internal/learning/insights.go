// Package learning mines tracked query history for classifier weaknesses:
// prioritized insights over a rolling window and candidate patterns derived
// from fallback-classified queries.
package learning

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sportsiq/backend/internal/storage"
	"github.com/sportsiq/backend/internal/storage/models"
	"github.com/sportsiq/backend/pkg/config"
	"github.com/sportsiq/backend/pkg/logger"
)

type Service struct {
	store storage.Store
	cfg   config.LearningConfig
}

func NewService(store storage.Store, cfg config.LearningConfig) *Service {
	return &Service{store: store, cfg: cfg}
}

// GenerateInsights runs four independent rules over the window and returns
// their findings sorted HIGH, MEDIUM, LOW; within a tier insights keep rule
// evaluation order. The pass is read-only and recomputes from history every
// time. windowDays <= 0 uses the configured window.
func (s *Service) GenerateInsights(windowDays int) ([]models.LearningInsight, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.WindowDays
	}
	since := time.Now().AddDate(0, 0, -windowDays)

	counts, err := s.store.WindowCounts(since, s.cfg.LowConfidenceThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to compute window counts: %w", err)
	}

	var insights []models.LearningInsight

	// Pattern gaps: intents the deterministic patterns keep missing.
	for _, group := range sortedFallbackGroups(counts) {
		if group.count < s.cfg.PatternGapMinCount {
			continue
		}

		priority := models.PriorityLow
		switch {
		case group.count >= s.cfg.PatternGapHighCount:
			priority = models.PriorityHigh
		case group.count >= s.cfg.PatternGapMediumCount:
			priority = models.PriorityMedium
		}

		insights = append(insights, models.LearningInsight{
			Type:         models.InsightPatternGap,
			Description:  fmt.Sprintf("%d %s queries needed fallback classification; no pattern covers them", group.count, group.intent),
			QueryExample: counts.FallbackExamples[group.intent],
			Occurrences:  group.count,
			Priority:     priority,
		})
	}

	// Entity misses: answers that discussed different entities than asked.
	if counts.Mismatches >= s.cfg.EntityMissMinCount {
		insights = append(insights, models.LearningInsight{
			Type:         models.InsightEntityMiss,
			Description:  fmt.Sprintf("%d responses discussed different entities than the query asked about", counts.Mismatches),
			QueryExample: counts.MismatchExample,
			Occurrences:  counts.Mismatches,
			Priority:     models.PriorityHigh,
		})
	}

	// Low-confidence classifications.
	if counts.LowConfidence >= s.cfg.LowConfidenceMinCount {
		priority := models.PriorityMedium
		if counts.LowConfidence >= s.cfg.LowConfidenceHighCount {
			priority = models.PriorityHigh
		}
		insights = append(insights, models.LearningInsight{
			Type:         models.InsightLowConfidence,
			Description:  fmt.Sprintf("%d queries classified below %.2f confidence", counts.LowConfidence, s.cfg.LowConfidenceThreshold),
			QueryExample: counts.LowConfExample,
			Occurrences:  counts.LowConfidence,
			Priority:     priority,
		})
	}

	// Negative feedback clusters point at intent confusion: the classifier
	// picked an intent and users said the answer was wrong.
	if counts.Negative >= s.cfg.NegativeMinCount {
		insights = append(insights, models.LearningInsight{
			Type:         models.InsightIntentConfusion,
			Description:  fmt.Sprintf("%d queries received negative feedback in the window", counts.Negative),
			QueryExample: counts.NegativeExample,
			Occurrences:  counts.Negative,
			Priority:     models.PriorityHigh,
		})
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return priorityRank(insights[i].Priority) < priorityRank(insights[j].Priority)
	})

	logger.Info("Learning insights generated",
		zap.Int("window_days", windowDays),
		zap.Int("insights", len(insights)),
	)

	return insights, nil
}

// Stats returns the aggregate view over the query history. All rates are
// zero on an empty history.
func (s *Service) Stats() (*models.QueryStats, error) {
	return s.store.Stats(10)
}

type fallbackGroup struct {
	intent string
	count  int
}

// Largest groups first; names break ties so output is deterministic.
func sortedFallbackGroups(counts *models.WindowCounts) []fallbackGroup {
	groups := make([]fallbackGroup, 0, len(counts.FallbackByIntent))
	for intent, count := range counts.FallbackByIntent {
		groups = append(groups, fallbackGroup{intent: intent, count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].intent < groups[j].intent
	})
	return groups
}

func priorityRank(p models.InsightPriority) int {
	switch p {
	case models.PriorityHigh:
		return 0
	case models.PriorityMedium:
		return 1
	default:
		return 2
	}
}
