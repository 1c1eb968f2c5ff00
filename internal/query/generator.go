package query

import (
	"context"
	"time"

	"github.com/sportsiq/backend/internal/intent"
	"github.com/sportsiq/backend/internal/llm"
	"github.com/sportsiq/backend/internal/storage/models"
)

// GenerationRequest carries everything the answer collaborator needs about
// a classified query.
type GenerationRequest struct {
	Query    string
	Intent   intent.Intent
	Entities []string
}

// GenerationResult is the answer envelope this subsystem inspects but does
// not produce itself.
type GenerationResult struct {
	Text      string                `json:"text"`
	Source    models.ResponseSource `json:"source"`
	Citations []string              `json:"citations"`
	LatencyMS int                   `json:"latency_ms"`
}

// Generator is the external answer-generation collaborator. Verified-stats
// lookups, external search, and hybrid strategies all sit behind this
// interface; the engine only inspects and records what comes back.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// LLMGenerator answers directly from the language model. It is the default
// collaborator wired in main; deployments with richer pipelines replace it.
type LLMGenerator struct {
	client *llm.Client
}

func NewLLMGenerator(client *llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client}
}

func (g *LLMGenerator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	start := time.Now()

	text, err := g.client.GenerateAnswer(ctx, req.Query, req.Entities)
	if err != nil {
		return nil, err
	}

	return &GenerationResult{
		Text:      text,
		Source:    models.SourceLLM,
		LatencyMS: int(time.Since(start).Milliseconds()),
	}, nil
}
