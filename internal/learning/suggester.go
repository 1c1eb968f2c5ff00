package learning

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/sportsiq/backend/pkg/logger"
)

// domainSuffixes anchor per-word suggestions so they stay narrow and
// actionable instead of matching any sentence containing the word.
var domainSuffixes = []string{"stats", "game", "score", "prediction", "record", "season"}

// SuggestPatterns derives candidate matching rules for an intent from the
// queries only the fallback classifier could handle. Below the minimum
// sample it returns nothing: a handful of queries is noise, not signal.
func (s *Service) SuggestPatterns(intent string) ([]string, error) {
	queries, err := s.store.FallbackQueries(intent, s.cfg.SuggestSampleLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fallback queries: %w", err)
	}

	if len(queries) < s.cfg.SuggestMinSample {
		logger.Debug("Insufficient fallback sample for suggestions",
			zap.String("intent", intent),
			zap.Int("sample", len(queries)),
		)
		return nil, nil
	}

	words := frequentWords(queries, s.cfg.SuggestWordFrequency, s.cfg.SuggestMaxWords)
	if len(words) == 0 {
		return nil, nil
	}

	var suggestions []string
	if len(words) >= 2 {
		suggestions = append(suggestions, fmt.Sprintf(`\b(%s)\b`, strings.Join(words, "|")))
	}
	for _, word := range words {
		suggestions = append(suggestions, fmt.Sprintf(`\b%s\b.*\b(%s)\b`, word, strings.Join(domainSuffixes, "|")))
	}

	logger.Info("Pattern suggestions generated",
		zap.String("intent", intent),
		zap.Int("sample", len(queries)),
		zap.Int("suggestions", len(suggestions)),
	)

	return suggestions, nil
}

// frequentWords computes per-word document frequency across the sample and
// keeps the top maxWords words appearing in at least minFrequency of the
// queries. Words of length <= 3 are ignored.
func frequentWords(queries []string, minFrequency float64, maxWords int) []string {
	documentFrequency := make(map[string]int)

	for _, query := range queries {
		seen := make(map[string]struct{})
		for _, word := range tokenize(query) {
			if len(word) <= 3 || !alphabetic(word) {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			documentFrequency[word]++
		}
	}

	// Round up: a word in 1 of 4 queries sits at 25% and must not clear a
	// 30% floor.
	threshold := int(math.Ceil(minFrequency * float64(len(queries))))
	if threshold < 1 {
		threshold = 1
	}

	var qualifying []string
	for word, count := range documentFrequency {
		if count >= threshold {
			qualifying = append(qualifying, word)
		}
	}

	sort.Slice(qualifying, func(i, j int) bool {
		if documentFrequency[qualifying[i]] != documentFrequency[qualifying[j]] {
			return documentFrequency[qualifying[i]] > documentFrequency[qualifying[j]]
		}
		return qualifying[i] < qualifying[j]
	})

	if len(qualifying) > maxWords {
		qualifying = qualifying[:maxWords]
	}
	return qualifying
}

var wordPattern = regexp.MustCompile(`[a-z]+`)

func tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		// The tokenizer rejecting odd input is not worth losing the
		// sample over; fall back to a plain word scan.
		return wordPattern.FindAllString(strings.ToLower(text), -1)
	}

	tokens := doc.Tokens()
	words := make([]string, 0, len(tokens))
	for _, token := range tokens {
		words = append(words, strings.ToLower(token.Text))
	}
	return words
}

func alphabetic(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
