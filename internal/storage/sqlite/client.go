package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sportsiq/backend/internal/storage/models"
	"github.com/sportsiq/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets analytics reads run concurrently with tracking writes.
	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	_, err = db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		raw_query TEXT NOT NULL,
		normalized_query TEXT NOT NULL,
		user_id TEXT,
		detected_intent TEXT,
		intent_confidence REAL,
		matched_pattern_id TEXT,
		was_llm_classified INTEGER NOT NULL DEFAULT 0,
		entities_detected TEXT,
		category TEXT,
		sport TEXT,
		team TEXT,
		league TEXT,
		response_source TEXT,
		cache_hit INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		citations TEXT,
		response_length INTEGER NOT NULL DEFAULT 0,
		entity_mismatch INTEGER NOT NULL DEFAULT 0,
		mismatch_details TEXT,
		feedback_rating INTEGER,
		feedback_comment TEXT,
		feedback_at INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_created ON query_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_query_intent ON query_history(detected_intent);
	CREATE INDEX IF NOT EXISTS idx_query_fallback ON query_history(was_llm_classified);
	CREATE INDEX IF NOT EXISTS idx_query_user ON query_history(user_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertQueryRecord(record *models.QueryRecord) error {
	entitiesJSON, _ := json.Marshal(record.EntitiesDetected)
	citationsJSON, _ := json.Marshal(record.Citations)

	query := `
		INSERT INTO query_history (id, raw_query, normalized_query, user_id,
			detected_intent, intent_confidence, matched_pattern_id, was_llm_classified,
			entities_detected, category, sport, team, league,
			response_source, cache_hit, latency_ms, citations, response_length,
			entity_mismatch, mismatch_details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var mismatchDetails interface{}
	if record.MismatchDetails != nil {
		mismatchDetails = *record.MismatchDetails
	}

	_, err := c.db.Exec(
		query,
		record.ID,
		record.RawQuery,
		record.NormalizedQuery,
		record.UserID,
		nullableString(record.DetectedIntent),
		nullableFloat(record.IntentConfidence),
		nullableString(record.MatchedPatternID),
		boolToInt(record.WasLLMClassified),
		string(entitiesJSON),
		record.Category,
		record.Sport,
		record.Team,
		record.League,
		string(record.ResponseSource),
		boolToInt(record.CacheHit),
		record.LatencyMS,
		string(citationsJSON),
		record.ResponseLength,
		boolToInt(record.EntityMismatch),
		mismatchDetails,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}

	logger.Debug("Query recorded",
		zap.String("query_id", record.ID),
		zap.Bool("llm_classified", record.WasLLMClassified),
	)

	return nil
}

func (c *Client) GetQueryRecord(id string) (*models.QueryRecord, error) {
	query := `
		SELECT id, raw_query, normalized_query, user_id,
			detected_intent, intent_confidence, matched_pattern_id, was_llm_classified,
			entities_detected, category, sport, team, league,
			response_source, cache_hit, latency_ms, citations, response_length,
			entity_mismatch, mismatch_details, feedback_rating, feedback_comment,
			feedback_at, created_at
		FROM query_history WHERE id = ?
	`

	var (
		r               models.QueryRecord
		intent          sql.NullString
		confidence      sql.NullFloat64
		patternID       sql.NullString
		llmClassified   int
		entitiesJSON    string
		userID          sql.NullString
		responseSource  sql.NullString
		cacheHit        int
		citationsJSON   string
		mismatch        int
		mismatchDetails sql.NullString
		rating          sql.NullInt64
		comment         sql.NullString
		feedbackAt      sql.NullInt64
		createdAt       int64
	)

	err := c.db.QueryRow(query, id).Scan(
		&r.ID, &r.RawQuery, &r.NormalizedQuery, &userID,
		&intent, &confidence, &patternID, &llmClassified,
		&entitiesJSON, &r.Category, &r.Sport, &r.Team, &r.League,
		&responseSource, &cacheHit, &r.LatencyMS, &citationsJSON, &r.ResponseLength,
		&mismatch, &mismatchDetails, &rating, &comment, &feedbackAt, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get query record: %w", err)
	}

	r.UserID = userID.String
	if intent.Valid {
		r.DetectedIntent = &intent.String
	}
	if confidence.Valid {
		r.IntentConfidence = &confidence.Float64
	}
	if patternID.Valid {
		r.MatchedPatternID = &patternID.String
	}
	r.WasLLMClassified = llmClassified != 0
	json.Unmarshal([]byte(entitiesJSON), &r.EntitiesDetected)
	r.ResponseSource = models.ResponseSource(responseSource.String)
	r.CacheHit = cacheHit != 0
	json.Unmarshal([]byte(citationsJSON), &r.Citations)
	r.EntityMismatch = mismatch != 0
	if mismatchDetails.Valid {
		r.MismatchDetails = &mismatchDetails.String
	}
	if rating.Valid {
		v := int(rating.Int64)
		r.FeedbackRating = &v
	}
	if comment.Valid {
		r.FeedbackComment = &comment.String
	}
	if feedbackAt.Valid {
		t := time.Unix(feedbackAt.Int64, 0)
		r.FeedbackAt = &t
	}
	r.CreatedAt = time.Unix(createdAt, 0)

	return &r, nil
}

func (c *Client) UpdateFeedback(id string, rating int, comment string, at time.Time) (bool, error) {
	// feedback_at keeps its original value on repeat submissions, so
	// re-sending the same rating is a no-op in effect.
	query := `
		UPDATE query_history
		SET feedback_rating = ?,
			feedback_comment = ?,
			feedback_at = COALESCE(feedback_at, ?)
		WHERE id = ?
	`

	res, err := c.db.Exec(query, rating, comment, at.Unix(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update feedback: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func (c *Client) UpdateMismatch(id string, details string) error {
	query := `UPDATE query_history SET entity_mismatch = 1, mismatch_details = ? WHERE id = ?`

	_, err := c.db.Exec(query, details, id)
	if err != nil {
		return fmt.Errorf("failed to update mismatch: %w", err)
	}

	return nil
}

// WindowCounts computes every insight-rule tally in one scan over the
// window instead of issuing a count query per rule.
func (c *Client) WindowCounts(since time.Time, lowConfidence float64) (*models.WindowCounts, error) {
	query := `
		SELECT raw_query, detected_intent, intent_confidence,
			was_llm_classified, entity_mismatch, feedback_rating
		FROM query_history
		WHERE created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := c.db.Query(query, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query window: %w", err)
	}
	defer rows.Close()

	counts := &models.WindowCounts{
		FallbackByIntent: make(map[string]int),
		FallbackExamples: make(map[string]string),
	}

	for rows.Next() {
		var (
			rawQuery      string
			intent        sql.NullString
			confidence    sql.NullFloat64
			llmClassified int
			mismatch      int
			rating        sql.NullInt64
		)

		if err := rows.Scan(&rawQuery, &intent, &confidence, &llmClassified, &mismatch, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		counts.Total++

		if llmClassified != 0 && intent.Valid {
			counts.Fallback++
			counts.FallbackByIntent[intent.String]++
			if _, ok := counts.FallbackExamples[intent.String]; !ok {
				counts.FallbackExamples[intent.String] = rawQuery
			}
		}

		if mismatch != 0 {
			counts.Mismatches++
			if counts.MismatchExample == "" {
				counts.MismatchExample = rawQuery
			}
		}

		if confidence.Valid && confidence.Float64 < lowConfidence {
			counts.LowConfidence++
			if counts.LowConfExample == "" {
				counts.LowConfExample = rawQuery
			}
		}

		if rating.Valid && int(rating.Int64) == models.RatingNegative {
			counts.Negative++
			if counts.NegativeExample == "" {
				counts.NegativeExample = rawQuery
			}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate window rows: %w", err)
	}

	return counts, nil
}

func (c *Client) FallbackQueries(intent string, limit int) ([]string, error) {
	query := `
		SELECT normalized_query
		FROM query_history
		WHERE was_llm_classified = 1 AND detected_intent = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, intent, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fallback records: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		queries = append(queries, q)
	}

	return queries, rows.Err()
}

func (c *Client) Stats(recentLimit int) (*models.QueryStats, error) {
	dayAgo := time.Now().Add(-24 * time.Hour).Unix()

	aggregate := `
		SELECT COUNT(*),
			SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END),
			COALESCE(AVG(intent_confidence), 0),
			SUM(CASE WHEN feedback_rating = 5 THEN 1 ELSE 0 END),
			SUM(CASE WHEN feedback_rating = 1 THEN 1 ELSE 0 END),
			SUM(entity_mismatch),
			SUM(was_llm_classified),
			SUM(cache_hit)
		FROM query_history
	`

	var (
		stats                                              models.QueryStats
		last24h, positive, negative, mismatches, fallbacks sql.NullInt64
		cacheHits                                          sql.NullInt64
	)

	err := c.db.QueryRow(aggregate, dayAgo).Scan(
		&stats.TotalQueries,
		&last24h,
		&stats.AvgConfidence,
		&positive,
		&negative,
		&mismatches,
		&fallbacks,
		&cacheHits,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	stats.QueriesLast24h = int(last24h.Int64)
	stats.FeedbackPositive = int(positive.Int64)
	stats.FeedbackNegative = int(negative.Int64)
	stats.MismatchCount = int(mismatches.Int64)

	// Rates over zero records are defined as zero.
	if stats.TotalQueries > 0 {
		stats.LLMFallbackRate = float64(fallbacks.Int64) / float64(stats.TotalQueries)
		stats.CacheHitRate = float64(cacheHits.Int64) / float64(stats.TotalQueries)
	}

	stats.TopCategories = make(map[string]int)
	catRows, err := c.db.Query(`
		SELECT category, COUNT(*)
		FROM query_history
		WHERE category != ''
		GROUP BY category
		ORDER BY COUNT(*) DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top categories: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var category string
		var count int
		if err := catRows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		stats.TopCategories[category] = count
	}
	if err := catRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}

	recentRows, err := c.db.Query(`
		SELECT id, raw_query, COALESCE(detected_intent, ''), created_at
		FROM query_history
		ORDER BY created_at DESC
		LIMIT ?
	`, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent queries: %w", err)
	}
	defer recentRows.Close()

	for recentRows.Next() {
		var s models.QuerySummary
		var createdAt int64
		if err := recentRows.Scan(&s.ID, &s.RawQuery, &s.DetectedIntent, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent row: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0)
		stats.RecentQueries = append(stats.RecentQueries, s)
	}

	return &stats, recentRows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
