package intent

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sportsiq/backend/pkg/logger"
)

// Fallback is an external probabilistic classifier consulted when no
// deterministic pattern matches. It has its own latency and failure mode and
// is treated as a black box.
type Fallback interface {
	ClassifyIntent(ctx context.Context, text string) (Intent, float64, error)
}

type Result struct {
	Intent           Intent
	Confidence       float64
	MatchedPatternID *string
	WasLLMClassified bool
}

// Classifier evaluates an ordered pattern list and falls back to a
// probabilistic classifier for unmatched text. The pattern list is fixed at
// construction, so concurrent classification needs no locking.
type Classifier struct {
	patterns        []Pattern
	fallback        Fallback
	fallbackTimeout time.Duration
}

func NewClassifier(patterns []Pattern, fallback Fallback, fallbackTimeout time.Duration) *Classifier {
	if fallbackTimeout <= 0 {
		fallbackTimeout = 8 * time.Second
	}
	return &Classifier{
		patterns:        patterns,
		fallback:        fallback,
		fallbackTimeout: fallbackTimeout,
	}
}

// Normalize lowercases text and collapses runs of whitespace. Patterns are
// written against this form.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Classify never fails: on pattern match it returns the matched intent with
// confidence 1.0; otherwise it consults the fallback under a timeout and, if
// that errors too, degrades to UNKNOWN with confidence 0.
func (c *Classifier) Classify(ctx context.Context, normalizedQuery string) Result {
	for i := range c.patterns {
		p := &c.patterns[i]
		if p.Regexp.MatchString(normalizedQuery) {
			id := p.ID
			return Result{
				Intent:           p.Intent,
				Confidence:       1.0,
				MatchedPatternID: &id,
				WasLLMClassified: false,
			}
		}
	}

	if c.fallback == nil {
		return Result{Intent: IntentUnknown, Confidence: 0, WasLLMClassified: true}
	}

	ctx, cancel := context.WithTimeout(ctx, c.fallbackTimeout)
	defer cancel()

	detected, confidence, err := c.fallback.ClassifyIntent(ctx, normalizedQuery)
	if err != nil {
		logger.Warn("Fallback classification failed, degrading to UNKNOWN",
			zap.String("query", normalizedQuery),
			zap.Error(err),
		)
		return Result{Intent: IntentUnknown, Confidence: 0, WasLLMClassified: true}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Result{
		Intent:           detected,
		Confidence:       confidence,
		WasLLMClassified: true,
	}
}
