package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sportsiq/backend/internal/intent"
	"github.com/sportsiq/backend/pkg/circuitbreaker"
	"github.com/sportsiq/backend/pkg/logger"
	"github.com/sportsiq/backend/pkg/retry"
)

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(apiKey, model string, temperature float32, maxTokens, timeoutSec int) *Client {
	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    2,
		InitialDelay:   250 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM client initialized", zap.String("model", model))

	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSec) * time.Second,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

type completionRequest struct {
	systemPrompt string
	userPrompt   string
	maxTokens    int
}

func (c *Client) complete(ctx context.Context, req completionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.systemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.userPrompt,
		},
	}

	maxTokens := req.maxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	var content string

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    messages,
					Temperature: c.temperature,
					MaxTokens:   maxTokens,
				},
			)

			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			content = resp.Choices[0].Message.Content
			return nil
		})
	})

	if err != nil {
		return "", err
	}

	return content, nil
}

type intentResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// ClassifyIntent implements intent.Fallback. It asks the model to pick one
// of the known intents and self-report a confidence.
func (c *Client) ClassifyIntent(ctx context.Context, text string) (intent.Intent, float64, error) {
	systemPrompt := `You classify sports questions into exactly one intent:
PLAYER_STATS, TEAM_STATS, PLAYER_COMPARISON, GAME_SCHEDULE, MATCH_RESULT,
STANDINGS, PREDICTION, INJURY_STATUS, RULES_EXPLAINER, UNKNOWN.

Return JSON only:
{"intent": "INTENT_NAME", "confidence": 0.0-1.0}`

	userPrompt := fmt.Sprintf("Classify this question:\n\n%s", text)

	content, err := c.complete(ctx, completionRequest{
		systemPrompt: systemPrompt,
		userPrompt:   userPrompt,
		maxTokens:    64,
	})
	if err != nil {
		return intent.IntentUnknown, 0, err
	}

	var parsed intentResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return intent.IntentUnknown, 0, fmt.Errorf("failed to parse intent response %q: %w", content, err)
	}

	detected := intent.Intent(strings.ToUpper(parsed.Intent))
	if !intent.Known(string(detected)) {
		detected = intent.IntentUnknown
	}

	logger.Debug("Fallback classification",
		zap.String("intent", string(detected)),
		zap.Float64("confidence", parsed.Confidence),
	)

	return detected, parsed.Confidence, nil
}

// GenerateAnswer is the default answer-generation collaborator. The query
// intelligence layer only inspects the text it returns; richer generators
// (verified stats lookups, hybrid search) plug in through query.Generator.
func (c *Client) GenerateAnswer(ctx context.Context, question string, entities []string) (string, error) {
	systemPrompt := `You are a sports information assistant. Answer concisely
and factually. If you are not confident in a fact, say so rather than
guessing.`

	userPrompt := question
	if len(entities) > 0 {
		userPrompt = fmt.Sprintf("%s\n\n(The question mentions: %s)", question, strings.Join(entities, ", "))
	}

	content, err := c.complete(ctx, completionRequest{
		systemPrompt: systemPrompt,
		userPrompt:   userPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	logger.Info("Answer generated",
		zap.Int("response_length", len(content)),
	)

	return content, nil
}
