package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sportsiq/backend/internal/metrics"
	"github.com/sportsiq/backend/internal/tracker"
	"github.com/sportsiq/backend/pkg/logger"
)

type FeedbackHandler struct {
	tracker *tracker.Tracker
}

func NewFeedbackHandler(trk *tracker.Tracker) *FeedbackHandler {
	return &FeedbackHandler{tracker: trk}
}

// HandleFeedback is the one path where a validation failure is surfaced to
// the caller: a rating outside {1,5} is rejected before any write.
func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var req struct {
		QueryID string `json:"query_id"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.QueryID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query_id is required",
		})
	}

	changed, err := h.tracker.RecordFeedback(req.QueryID, req.Rating, req.Comment)
	switch {
	case errors.Is(err, tracker.ErrInvalidRating):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "rating must be 1 or 5",
		})
	case errors.Is(err, tracker.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "query not found",
		})
	case err != nil:
		logger.Error("Failed to record feedback",
			zap.String("query_id", req.QueryID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record feedback",
		})
	}

	// Resubmissions of an unchanged rating are accepted but not counted.
	if changed {
		metrics.FeedbackTotal.WithLabelValues(strconv.Itoa(req.Rating)).Inc()
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
