package mismatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsiq/backend/internal/entity"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()

	registry := entity.NewRegistry()

	basketball, err := entity.NewLexiconMatcher("basketball", []string{
		"lakers", "celtics", "lebron james", "jayson tatum",
	})
	require.NoError(t, err)
	soccer, err := entity.NewLexiconMatcher("soccer", []string{
		"haaland", "erling haaland", "manchester city", "arsenal",
	})
	require.NoError(t, err)

	registry.Register("basketball", basketball)
	registry.Register("soccer", soccer)

	return NewDetector(registry)
}

func TestDetect_FlagsDisjointEntities(t *testing.T) {
	detector := newTestDetector(t)

	result := detector.Detect(
		"How many goals has Haaland scored this season?",
		"Jayson Tatum is averaging 27 points per game for the Celtics.",
	)

	assert.True(t, result.HasMismatch)
	assert.Equal(t, []string{"haaland"}, result.QueryEntities)
	assert.Equal(t, []string{"celtics", "jayson tatum"}, result.ResponseEntities)
	assert.Equal(t,
		"query asked about [haaland] but response discusses [celtics, jayson tatum]",
		result.Details,
	)
}

func TestDetect_NoMismatchOnOverlap(t *testing.T) {
	detector := newTestDetector(t)

	result := detector.Detect(
		"When do the Lakers play the Celtics?",
		"The Lakers host the Celtics on Thursday.",
	)

	assert.False(t, result.HasMismatch)
	assert.Empty(t, result.Details)
}

func TestDetect_PartialNameFormsOverlap(t *testing.T) {
	detector := newTestDetector(t)

	// "haaland" in the query must count as overlapping "erling haaland"
	// in the response.
	result := detector.Detect(
		"Is Haaland fit to play?",
		"Erling Haaland trained fully this week.",
	)

	assert.False(t, result.HasMismatch)
}

func TestDetect_EntityFreeQueryIsNeverFlagged(t *testing.T) {
	detector := newTestDetector(t)

	result := detector.Detect(
		"Explain the offside rule",
		"The Lakers and Arsenal both play this week.",
	)

	assert.False(t, result.HasMismatch)
	assert.Empty(t, result.QueryEntities)
}

func TestDetect_EntityFreeResponseIsNeverFlagged(t *testing.T) {
	detector := newTestDetector(t)

	result := detector.Detect(
		"How are the Lakers doing?",
		"The rule awards an indirect free kick to the defending side.",
	)

	assert.False(t, result.HasMismatch)
	assert.Equal(t, []string{"lakers"}, result.QueryEntities)
	assert.Empty(t, result.ResponseEntities)
}
