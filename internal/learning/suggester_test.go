package learning

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsiq/backend/internal/storage/memory"
)

func TestSuggestPatterns_BelowMinimumSample(t *testing.T) {
	store := memory.NewStore()
	seedN(t, store, "fb-", 3, "who takes the title", withFallback(), withIntent("PREDICTION"))

	service := NewService(store, testLearningConfig())
	suggestions, err := service.SuggestPatterns("PREDICTION")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestPatterns_GeneratesRulesFromFrequentWords(t *testing.T) {
	store := memory.NewStore()
	queries := []string{
		"which team takes the championship this year",
		"championship winner this season please",
		"who takes the championship trophy",
		"championship favourites right now",
	}
	for i, q := range queries {
		seed(t, store, "fb-"+string(rune('a'+i)), q, withFallback(), withIntent("PREDICTION"))
	}

	service := NewService(store, testLearningConfig())
	suggestions, err := service.SuggestPatterns("PREDICTION")
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)

	// "championship" appears in every query, well above the 30% document
	// frequency floor; "the" and shorter words never qualify.
	assert.Contains(t, suggestions[0], "championship")
	for _, suggestion := range suggestions {
		assert.NotContains(t, suggestion, `\bthe\b`)
	}

	// Every suggestion must be a compilable expression.
	for _, suggestion := range suggestions {
		_, err := regexp.Compile(suggestion)
		assert.NoError(t, err, "suggestion %q must compile", suggestion)
	}

	// Per-word rules stay anchored to a domain suffix.
	last := suggestions[len(suggestions)-1]
	assert.Contains(t, last, "(stats|game|score|prediction|record|season)")
}

func TestSuggestPatterns_IgnoresPatternMatchedQueries(t *testing.T) {
	store := memory.NewStore()
	// Pattern-classified traffic must not feed suggestions even in volume.
	seedN(t, store, "pat-", 10, "championship odds tonight", withIntent("PREDICTION"), withConfidence(1.0))

	service := NewService(store, testLearningConfig())
	suggestions, err := service.SuggestPatterns("PREDICTION")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestFrequentWords(t *testing.T) {
	queries := []string{
		"injury report for tonight",
		"latest injury news today",
		"injury update on the squad",
		"fitness doubts before kickoff",
	}

	words := frequentWords(queries, 0.3, 5)

	require.NotEmpty(t, words)
	assert.Equal(t, "injury", words[0])
	assert.NotContains(t, words, "for")
	assert.NotContains(t, words, "the")
}

func TestFrequentWords_CountsEachQueryOnce(t *testing.T) {
	// Repetition inside one query must not inflate document frequency.
	queries := []string{
		"score score score score",
		"final whistle report",
		"match report summary",
		"report from the press box",
	}

	words := frequentWords(queries, 0.5, 5)
	assert.NotContains(t, words, "score")
	assert.Contains(t, words, "report")
}

func TestFrequentWords_FloorRoundsUp(t *testing.T) {
	// With 4 queries a 30% floor means at least 2 of them; singleton words
	// sit at 25% and stay out.
	queries := []string{
		"alpha words only here",
		"bravo terms entirely different",
		"charlie phrasing again unrelated",
		"delta wording fresh every time",
	}

	words := frequentWords(queries, 0.3, 5)
	assert.Empty(t, words)

	// A word in 2 of 4 queries clears the floor.
	queries[3] = "delta wording alpha every time"
	words = frequentWords(queries, 0.3, 5)
	assert.Equal(t, []string{"alpha"}, words)
}

func TestSuggestPatterns_SingletonWordsProduceNothing(t *testing.T) {
	store := memory.NewStore()
	queries := []string{
		"alpha words only here",
		"bravo terms entirely different",
		"charlie phrasing again unrelated",
		"delta wording fresh every time",
	}
	for i, q := range queries {
		seed(t, store, "fb-"+string(rune('a'+i)), q, withFallback(), withIntent("PREDICTION"))
	}

	service := NewService(store, testLearningConfig())
	suggestions, err := service.SuggestPatterns("PREDICTION")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestFrequentWords_CapsAtMaxWords(t *testing.T) {
	queries := []string{
		"alpha bravo charlie delta echo foxtrot golf hotel",
		"alpha bravo charlie delta echo foxtrot golf hotel",
	}

	words := frequentWords(queries, 0.3, 3)
	assert.Len(t, words, 3)
}
