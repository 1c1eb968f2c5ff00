// Package memory provides an in-memory Store used by tests and local
// development where a database file is unwanted.
package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sportsiq/backend/internal/storage/models"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]*models.QueryRecord
	order   []string
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]*models.QueryRecord),
	}
}

func (s *Store) InsertQueryRecord(record *models.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[record.ID] = &clone
	s.order = append(s.order, record.ID)
	return nil
}

func (s *Store) GetQueryRecord(id string) (*models.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("query record %s not found", id)
	}
	clone := *record
	return &clone, nil
}

func (s *Store) UpdateFeedback(id string, rating int, comment string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return false, nil
	}

	record.FeedbackRating = &rating
	record.FeedbackComment = &comment
	if record.FeedbackAt == nil {
		record.FeedbackAt = &at
	}
	return true, nil
}

func (s *Store) UpdateMismatch(id string, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return fmt.Errorf("query record %s not found", id)
	}

	record.EntityMismatch = true
	record.MismatchDetails = &details
	return nil
}

func (s *Store) WindowCounts(since time.Time, lowConfidence float64) (*models.WindowCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := &models.WindowCounts{
		FallbackByIntent: make(map[string]int),
		FallbackExamples: make(map[string]string),
	}

	// Newest first, matching the sqlite scan order.
	for i := len(s.order) - 1; i >= 0; i-- {
		record := s.records[s.order[i]]
		if record.CreatedAt.Before(since) {
			continue
		}

		counts.Total++

		if record.WasLLMClassified && record.DetectedIntent != nil {
			intent := *record.DetectedIntent
			counts.Fallback++
			counts.FallbackByIntent[intent]++
			if _, ok := counts.FallbackExamples[intent]; !ok {
				counts.FallbackExamples[intent] = record.RawQuery
			}
		}

		if record.EntityMismatch {
			counts.Mismatches++
			if counts.MismatchExample == "" {
				counts.MismatchExample = record.RawQuery
			}
		}

		if record.IntentConfidence != nil && *record.IntentConfidence < lowConfidence {
			counts.LowConfidence++
			if counts.LowConfExample == "" {
				counts.LowConfExample = record.RawQuery
			}
		}

		if record.FeedbackRating != nil && *record.FeedbackRating == models.RatingNegative {
			counts.Negative++
			if counts.NegativeExample == "" {
				counts.NegativeExample = record.RawQuery
			}
		}
	}

	return counts, nil
}

func (s *Store) FallbackQueries(intent string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var queries []string
	for i := len(s.order) - 1; i >= 0 && len(queries) < limit; i-- {
		record := s.records[s.order[i]]
		if record.WasLLMClassified && record.DetectedIntent != nil && *record.DetectedIntent == intent {
			queries = append(queries, record.NormalizedQuery)
		}
	}

	return queries, nil
}

func (s *Store) Stats(recentLimit int) (*models.QueryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.QueryStats{
		TopCategories: make(map[string]int),
	}

	dayAgo := time.Now().Add(-24 * time.Hour)
	var confidenceSum float64
	var confidenceCount, fallbacks, cacheHits int

	for _, id := range s.order {
		record := s.records[id]
		stats.TotalQueries++

		if !record.CreatedAt.Before(dayAgo) {
			stats.QueriesLast24h++
		}
		if record.IntentConfidence != nil {
			confidenceSum += *record.IntentConfidence
			confidenceCount++
		}
		if record.FeedbackRating != nil {
			switch *record.FeedbackRating {
			case models.RatingPositive:
				stats.FeedbackPositive++
			case models.RatingNegative:
				stats.FeedbackNegative++
			}
		}
		if record.EntityMismatch {
			stats.MismatchCount++
		}
		if record.WasLLMClassified {
			fallbacks++
		}
		if record.CacheHit {
			cacheHits++
		}
		if record.Category != "" {
			stats.TopCategories[record.Category]++
		}
	}

	if confidenceCount > 0 {
		stats.AvgConfidence = confidenceSum / float64(confidenceCount)
	}
	if stats.TotalQueries > 0 {
		stats.LLMFallbackRate = float64(fallbacks) / float64(stats.TotalQueries)
		stats.CacheHitRate = float64(cacheHits) / float64(stats.TotalQueries)
	}

	for i := len(s.order) - 1; i >= 0 && len(stats.RecentQueries) < recentLimit; i-- {
		record := s.records[s.order[i]]
		summary := models.QuerySummary{
			ID:        record.ID,
			RawQuery:  record.RawQuery,
			CreatedAt: record.CreatedAt,
		}
		if record.DetectedIntent != nil {
			summary.DetectedIntent = *record.DetectedIntent
		}
		stats.RecentQueries = append(stats.RecentQueries, summary)
	}

	sort.SliceStable(stats.RecentQueries, func(i, j int) bool {
		return stats.RecentQueries[i].CreatedAt.After(stats.RecentQueries[j].CreatedAt)
	})

	return stats, nil
}

func (s *Store) Close() error {
	return nil
}
