package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsiq/backend/internal/learning"
	"github.com/sportsiq/backend/internal/storage/memory"
	"github.com/sportsiq/backend/pkg/config"
)

func newLearningApp(t *testing.T) *fiber.App {
	t.Helper()

	service := learning.NewService(memory.NewStore(), config.LearningConfig{
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
	})

	handler := NewLearningHandler(service, time.Minute)

	app := fiber.New()
	app.Get("/api/v1/stats", handler.HandleStats)
	app.Get("/api/v1/insights", handler.HandleInsights)
	app.Get("/api/v1/suggestions", handler.HandleSuggestions)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHandleStats_EmptyHistory(t *testing.T) {
	app := newLearningApp(t)

	status, body := get(t, app, "/api/v1/stats")
	require.Equal(t, fiber.StatusOK, status)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.EqualValues(t, 0, stats["total_queries"])
}

func TestHandleInsights_EmptyHistoryReturnsEmptyList(t *testing.T) {
	app := newLearningApp(t)

	status, body := get(t, app, "/api/v1/insights")
	require.Equal(t, fiber.StatusOK, status)

	var payload struct {
		Insights []json.RawMessage `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.NotNil(t, payload.Insights)
	assert.Empty(t, payload.Insights)
}

func TestHandleSuggestions(t *testing.T) {
	app := newLearningApp(t)

	t.Run("requires intent parameter", func(t *testing.T) {
		status, _ := get(t, app, "/api/v1/suggestions")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("empty sample yields empty suggestions", func(t *testing.T) {
		status, body := get(t, app, "/api/v1/suggestions?intent=PREDICTION")
		require.Equal(t, fiber.StatusOK, status)

		var payload struct {
			Intent      string   `json:"intent"`
			Suggestions []string `json:"suggestions"`
			Count       int      `json:"count"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "PREDICTION", payload.Intent)
		assert.Empty(t, payload.Suggestions)
		assert.Zero(t, payload.Count)
	})
}
