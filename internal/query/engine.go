package query

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sportsiq/backend/internal/cache/redis"
	"github.com/sportsiq/backend/internal/entity"
	"github.com/sportsiq/backend/internal/intent"
	"github.com/sportsiq/backend/internal/metrics"
	"github.com/sportsiq/backend/internal/mismatch"
	"github.com/sportsiq/backend/internal/storage/models"
	"github.com/sportsiq/backend/internal/tracker"
	"github.com/sportsiq/backend/pkg/logger"
	"github.com/sportsiq/backend/pkg/utils"
)

// Engine orchestrates the query intelligence path: classify and extract,
// obtain an answer, check it for entity drift, and hand the full record to
// the tracker off the response path.
type Engine struct {
	registry   *entity.Registry
	classifier *intent.Classifier
	detector   *mismatch.Detector
	tracker    *tracker.Tracker
	generator  Generator
	cache      *redis.Client
	cacheTTL   time.Duration
}

type QueryRequest struct {
	Query  string
	UserID string
}

type QueryResponse struct {
	ID               string   `json:"id"`
	Query            string   `json:"query"`
	Response         string   `json:"response"`
	Intent           string   `json:"intent"`
	Confidence       float64  `json:"confidence"`
	Entities         []string `json:"entities"`
	WasLLMClassified bool     `json:"was_llm_classified"`
	Source           string   `json:"source"`
	Citations        []string `json:"citations"`
	CacheHit         bool     `json:"cache_hit"`
	LatencyMS        int      `json:"latency_ms"`
}

// Classification is the classify-only contract, for callers that bring
// their own answer generation.
type Classification struct {
	Intent           string   `json:"intent"`
	Confidence       float64  `json:"confidence"`
	Entities         []string `json:"entities"`
	MatchedPatternID *string  `json:"matched_pattern_id"`
	WasLLMClassified bool     `json:"was_llm_classified"`
}

func NewEngine(
	registry *entity.Registry,
	classifier *intent.Classifier,
	detector *mismatch.Detector,
	trk *tracker.Tracker,
	generator Generator,
	cache *redis.Client,
	cacheTTL time.Duration,
) *Engine {
	return &Engine{
		registry:   registry,
		classifier: classifier,
		detector:   detector,
		tracker:    trk,
		generator:  generator,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// Classify runs entity extraction and intent classification only. It never
// fails; the worst case is UNKNOWN with zero confidence.
func (e *Engine) Classify(ctx context.Context, text string) Classification {
	normalized := intent.Normalize(text)
	result := e.classifier.Classify(ctx, normalized)

	observeClassification(result)

	return Classification{
		Intent:           string(result.Intent),
		Confidence:       result.Confidence,
		Entities:         e.registry.Extract(text),
		MatchedPatternID: result.MatchedPatternID,
		WasLLMClassified: result.WasLLMClassified,
	}
}

func (e *Engine) ProcessQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	startTime := time.Now()
	queryID := uuid.New().String()
	normalized := intent.Normalize(req.Query)

	logger.Info("Processing query",
		zap.String("query_id", queryID),
		zap.String("query", req.Query),
	)

	entities := e.registry.Extract(req.Query)
	classification := e.classifier.Classify(ctx, normalized)
	observeClassification(classification)

	generated, cacheHit := e.lookupCache(ctx, normalized)
	if !cacheHit {
		var err error
		generated, err = e.generator.Generate(ctx, GenerationRequest{
			Query:    req.Query,
			Intent:   classification.Intent,
			Entities: entities,
		})
		if err != nil {
			return nil, err
		}
		e.storeCache(ctx, normalized, generated)
	}

	drift := e.detector.Detect(req.Query, generated.Text)
	if drift.HasMismatch {
		metrics.EntityMismatchTotal.Inc()
		logger.Warn("Entity mismatch detected",
			zap.String("query_id", queryID),
			zap.String("details", drift.Details),
		)
	}

	latency := int(time.Since(startTime).Milliseconds())

	record := &models.QueryRecord{
		ID:               queryID,
		RawQuery:         req.Query,
		NormalizedQuery:  normalized,
		CreatedAt:        time.Now(),
		WasLLMClassified: classification.WasLLMClassified,
		MatchedPatternID: classification.MatchedPatternID,
		EntitiesDetected: entities,
		ResponseSource:   generated.Source,
		CacheHit:         cacheHit,
		LatencyMS:        latency,
		Citations:        generated.Citations,
		ResponseLength:   len(generated.Text),
		EntityMismatch:   drift.HasMismatch,
		UserID:           req.UserID,
	}
	intentName := string(classification.Intent)
	record.DetectedIntent = &intentName
	confidence := classification.Confidence
	record.IntentConfidence = &confidence
	if drift.HasMismatch {
		details := drift.Details
		record.MismatchDetails = &details
	}
	if cacheHit {
		record.ResponseSource = models.SourceCache
	}

	e.tracker.Track(record)
	metrics.TrackedQueriesTotal.Inc()
	metrics.QueryDuration.WithLabelValues(string(record.ResponseSource)).Observe(time.Since(startTime).Seconds())

	logger.Info("Query processed",
		zap.String("query_id", queryID),
		zap.String("intent", intentName),
		zap.Float64("confidence", confidence),
		zap.Bool("cache_hit", cacheHit),
		zap.Int("latency_ms", latency),
	)

	return &QueryResponse{
		ID:               queryID,
		Query:            req.Query,
		Response:         generated.Text,
		Intent:           intentName,
		Confidence:       confidence,
		Entities:         entities,
		WasLLMClassified: classification.WasLLMClassified,
		Source:           string(record.ResponseSource),
		Citations:        generated.Citations,
		CacheHit:         cacheHit,
		LatencyMS:        latency,
	}, nil
}

func (e *Engine) lookupCache(ctx context.Context, normalized string) (*GenerationResult, bool) {
	if e.cache == nil {
		return nil, false
	}

	var cached GenerationResult
	hit, err := e.cache.GetResponse(ctx, utils.HashString(normalized), &cached)
	if err != nil {
		logger.Warn("Response cache lookup failed", zap.Error(err))
		metrics.CacheMisses.WithLabelValues("response").Inc()
		return nil, false
	}
	if !hit {
		metrics.CacheMisses.WithLabelValues("response").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("response").Inc()
	return &cached, true
}

func (e *Engine) storeCache(ctx context.Context, normalized string, generated *GenerationResult) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetResponse(ctx, utils.HashString(normalized), generated, e.cacheTTL); err != nil {
		logger.Warn("Response cache store failed", zap.Error(err))
	}
}

func observeClassification(result intent.Result) {
	branch := "pattern"
	if result.WasLLMClassified {
		branch = "fallback"
		if result.Intent == intent.IntentUnknown && result.Confidence == 0 {
			branch = "unknown"
		}
	}
	metrics.ClassificationTotal.WithLabelValues(branch).Inc()
	metrics.ClassificationConfidence.Observe(result.Confidence)
}
