package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sportsiq/backend/internal/learning"
	"github.com/sportsiq/backend/internal/metrics"
	"github.com/sportsiq/backend/internal/storage/models"
	"github.com/sportsiq/backend/pkg/logger"
	"github.com/sportsiq/backend/pkg/ttlcache"
)

type LearningHandler struct {
	service       *learning.Service
	insightsCache *ttlcache.Cache[[]models.LearningInsight]
}

// NewLearningHandler fronts insight generation with a TTL cache so a burst
// of dashboard reads triggers at most one history scan.
func NewLearningHandler(service *learning.Service, cacheTTL time.Duration) *LearningHandler {
	h := &LearningHandler{service: service}
	h.insightsCache = ttlcache.New(cacheTTL, func(_ context.Context) ([]models.LearningInsight, error) {
		insights, err := service.GenerateInsights(0)
		if err != nil {
			return nil, err
		}
		observeInsights(insights)
		return insights, nil
	})
	return h
}

func (h *LearningHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats()
	if err != nil {
		logger.Error("Failed to compute query stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}

	return c.JSON(stats)
}

func (h *LearningHandler) HandleInsights(c *fiber.Ctx) error {
	insights, err := h.insightsCache.Get(c.Context())
	if err != nil {
		logger.Error("Failed to generate insights", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate insights",
		})
	}

	if insights == nil {
		insights = []models.LearningInsight{}
	}

	return c.JSON(fiber.Map{
		"insights": insights,
	})
}

func (h *LearningHandler) HandleSuggestions(c *fiber.Ctx) error {
	intentName := c.Query("intent")
	if intentName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "intent is required",
		})
	}

	suggestions, err := h.service.SuggestPatterns(intentName)
	if err != nil {
		logger.Error("Failed to suggest patterns",
			zap.String("intent", intentName),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to suggest patterns",
		})
	}

	if suggestions == nil {
		suggestions = []string{}
	}

	return c.JSON(fiber.Map{
		"intent":      intentName,
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

func observeInsights(insights []models.LearningInsight) {
	byPriority := map[models.InsightPriority]int{}
	for _, insight := range insights {
		byPriority[insight.Priority]++
	}
	for _, priority := range []models.InsightPriority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		metrics.InsightsGenerated.WithLabelValues(string(priority)).Set(float64(byPriority[priority]))
	}
}
