// Package tracker is the persistence boundary for classified queries. It
// records every query off the caller's response path, attaches feedback and
// mismatch findings after the fact, and fans out query events to listeners.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sportsiq/backend/internal/storage"
	"github.com/sportsiq/backend/internal/storage/models"
	"github.com/sportsiq/backend/pkg/logger"
	"github.com/sportsiq/backend/pkg/retry"
)

var (
	// ErrInvalidRating rejects feedback before any write: 1 (negative)
	// and 5 (positive) are the only valid ratings.
	ErrInvalidRating = errors.New("feedback rating must be 1 or 5")

	ErrNotFound = errors.New("query record not found")
)

// Event is the slim view of a tracked query pushed to live subscribers.
type Event struct {
	ID               string    `json:"id"`
	RawQuery         string    `json:"raw_query"`
	DetectedIntent   string    `json:"detected_intent,omitempty"`
	WasLLMClassified bool      `json:"was_llm_classified"`
	EntityMismatch   bool      `json:"entity_mismatch"`
	CreatedAt        time.Time `json:"created_at"`
}

type Tracker struct {
	store       storage.Store
	queue       chan *models.QueryRecord
	retryConfig retry.Config
	wg          sync.WaitGroup

	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	closed      bool
}

func New(store storage.Store) *Tracker {
	t := &Tracker{
		store: store,
		queue: make(chan *models.QueryRecord, 256),
		retryConfig: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			Logger:       logger.GetLogger(),
		},
		subscribers: make(map[chan Event]struct{}),
	}

	t.wg.Add(1)
	go t.persistLoop()

	return t
}

// Track validates and enqueues a record for durable persistence, returning
// its id immediately. The write happens on a background goroutine; when the
// queue is saturated the record is written synchronously instead so nothing
// is dropped.
func (t *Tracker) Track(record *models.QueryRecord) string {
	normalize(record)

	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()

	if closed {
		t.persist(record)
		return record.ID
	}

	select {
	case t.queue <- record:
	default:
		logger.Warn("Tracking queue saturated, persisting synchronously",
			zap.String("query_id", record.ID),
		)
		t.persist(record)
	}

	return record.ID
}

// RecordFeedback attaches a rating to a tracked query and reports whether
// the stored rating changed, so resubmissions can be told apart from new
// feedback. Invalid ratings are rejected before any write; resubmitting the
// same rating is a no-op in effect.
func (t *Tracker) RecordFeedback(id string, rating int, comment string) (bool, error) {
	if rating != models.RatingNegative && rating != models.RatingPositive {
		return false, ErrInvalidRating
	}

	prior, _ := t.store.GetQueryRecord(id)

	found, err := t.store.UpdateFeedback(id, rating, comment, time.Now())
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrNotFound
	}

	changed := prior == nil || prior.FeedbackRating == nil || *prior.FeedbackRating != rating

	logger.Info("Feedback recorded",
		zap.String("query_id", id),
		zap.Int("rating", rating),
		zap.Bool("changed", changed),
	)
	return changed, nil
}

// RecordMismatch flags a tracked query as having drifted off-topic.
func (t *Tracker) RecordMismatch(id string, details string) error {
	if details == "" {
		return errors.New("mismatch details must not be empty")
	}
	return t.store.UpdateMismatch(id, details)
}

// Subscribe returns a channel receiving an Event per persisted query and a
// cancel function. Slow subscribers miss events rather than stalling the
// persister.
func (t *Tracker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		if _, ok := t.subscribers[ch]; ok {
			delete(t.subscribers, ch)
			close(ch)
		}
		t.mu.Unlock()
	}

	return ch, cancel
}

// Close drains the queue and stops the persister.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	close(t.queue)
	t.wg.Wait()
}

func (t *Tracker) persistLoop() {
	defer t.wg.Done()
	for record := range t.queue {
		t.persist(record)
	}
}

func (t *Tracker) persist(record *models.QueryRecord) {
	err := retry.Do(context.Background(), t.retryConfig, func() error {
		return t.store.InsertQueryRecord(record)
	})
	if err != nil {
		// Tracking must never surface to the user; the record is lost
		// only after the retry budget is spent.
		logger.Error("Failed to persist query record",
			zap.String("query_id", record.ID),
			zap.Error(err),
		)
		return
	}

	t.broadcast(record)
}

func (t *Tracker) broadcast(record *models.QueryRecord) {
	event := Event{
		ID:               record.ID,
		RawQuery:         record.RawQuery,
		WasLLMClassified: record.WasLLMClassified,
		EntityMismatch:   record.EntityMismatch,
		CreatedAt:        record.CreatedAt,
	}
	if record.DetectedIntent != nil {
		event.DetectedIntent = *record.DetectedIntent
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// normalize enforces the record invariants instead of failing the request
// path: confidence is clamped to [0,1], a missing pattern id implies
// fallback classification, and a mismatch flag without details is cleared.
func normalize(record *models.QueryRecord) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if record.IntentConfidence != nil {
		c := *record.IntentConfidence
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		record.IntentConfidence = &c
	}
	if record.MatchedPatternID == nil {
		record.WasLLMClassified = true
	}
	if record.MismatchDetails == nil {
		record.EntityMismatch = false
	}
	if record.LatencyMS < 0 {
		record.LatencyMS = 0
	}
}
