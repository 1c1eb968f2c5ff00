package storage

import (
	"time"

	"github.com/sportsiq/backend/internal/storage/models"
)

// Store is the persistence boundary for tracked queries. Records are
// independent rows; no cross-record transactions are required. Reads for
// analytics must not block writers.
type Store interface {
	InsertQueryRecord(record *models.QueryRecord) error
	GetQueryRecord(id string) (*models.QueryRecord, error)

	// UpdateFeedback attaches a rating to an existing record. Writing the
	// same rating twice is a no-op in effect. Returns false when no record
	// with the given id exists.
	UpdateFeedback(id string, rating int, comment string, at time.Time) (bool, error)

	// UpdateMismatch flags a record as having answered about the wrong
	// entities. Details always accompany the flag.
	UpdateMismatch(id string, details string) error

	// WindowCounts computes every insight-rule tally over records created
	// at or after since, in a single scan.
	WindowCounts(since time.Time, lowConfidence float64) (*models.WindowCounts, error)

	// FallbackQueries returns the normalized text of the most recent
	// fallback-classified queries for an intent, newest first.
	FallbackQueries(intent string, limit int) ([]string, error)

	Stats(recentLimit int) (*models.QueryStats, error)

	Close() error
}
