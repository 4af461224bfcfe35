package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/regionpulse/pkg/domain"
)

// SentimentRepository handles analyzed sentiment records
type SentimentRepository struct {
	db *sqlx.DB
}

// sentimentSQL represents a sentiment record for SQL operations
type sentimentSQL struct {
	ID         int64      `db:"id"`
	Text       string     `db:"text"`
	Source     string     `db:"source"`
	Sentiment  string     `db:"sentiment"`
	Confidence float64    `db:"confidence"`
	Scores     scoresSQL  `db:"scores"`
	Language   string     `db:"language"`
	Topics     stringsSQL `db:"topics"`
	Entities   stringsSQL `db:"entities"`
	Region     string     `db:"region"`
	SubRegion  string     `db:"sub_region"`
	AnalyzedAt time.Time  `db:"analyzed_at"`
}

// NewSentimentRepository creates a new sentiment repository
func NewSentimentRepository(db *sqlx.DB) *SentimentRepository {
	return &SentimentRepository{db: db}
}

// CreateRecord inserts a single sentiment record
func (r *SentimentRepository) CreateRecord(ctx context.Context, rec *domain.SentimentRecord) error {
	query := `
		INSERT INTO sentiments (
			text, source, sentiment, confidence, scores, language,
			topics, entities, region, sub_region, analyzed_at
		) VALUES (
			:text, :source, :sentiment, :confidence, :scores, :language,
			:topics, :entities, :region, :sub_region, :analyzed_at
		)
	`

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		result, err := r.db.NamedExecContext(ctx, query, toSentimentSQL(rec))
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("create sentiment record: %w", err)}
		}

		id, err := result.LastInsertId()
		if err != nil {
			return &criticalError{err: fmt.Errorf("get insert id: %w", err)}
		}
		rec.ID = id
		return nil
	})
}

// GetSummary returns sentiment counts over the trailing window, optionally
// scoped to one region
func (r *SentimentRepository) GetSummary(ctx context.Context, region string, window time.Duration) (domain.SentimentSummary, error) {
	cutoff := time.Now().UTC().Add(-window)

	query := `
		SELECT sentiment, COUNT(*) AS count, AVG(confidence) AS avg_confidence
		FROM sentiments
		WHERE analyzed_at >= ?
	`
	args := []interface{}{cutoff}
	if region != "" {
		query += " AND region = ?"
		args = append(args, region)
	}
	query += " GROUP BY sentiment"

	rows := []struct {
		Sentiment     string  `db:"sentiment"`
		Count         int     `db:"count"`
		AvgConfidence float64 `db:"avg_confidence"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return domain.SentimentSummary{}, fmt.Errorf("get sentiment summary: %w", err)
	}

	var summary domain.SentimentSummary
	confidenceSum := 0.0
	for _, row := range rows {
		switch domain.Sentiment(row.Sentiment) {
		case domain.SentimentPositive:
			summary.Positive = row.Count
		case domain.SentimentNegative:
			summary.Negative = row.Count
		case domain.SentimentNeutral:
			summary.Neutral = row.Count
		}
		summary.Total += row.Count
		confidenceSum += row.AvgConfidence * float64(row.Count)
	}
	if summary.Total > 0 {
		summary.AvgConfidence = confidenceSum / float64(summary.Total)
	}
	return summary, nil
}

// GetByRegion returns per-region sentiment counts over the trailing window,
// excluding the unknown region, ordered by total mentions descending
func (r *SentimentRepository) GetByRegion(ctx context.Context, window time.Duration) ([]domain.RegionSentiment, error) {
	cutoff := time.Now().UTC().Add(-window)

	query := `
		SELECT region,
		       COUNT(*) AS total,
		       SUM(CASE WHEN sentiment = 'positive' THEN 1 ELSE 0 END) AS positive,
		       SUM(CASE WHEN sentiment = 'negative' THEN 1 ELSE 0 END) AS negative,
		       SUM(CASE WHEN sentiment = 'neutral' THEN 1 ELSE 0 END) AS neutral
		FROM sentiments
		WHERE analyzed_at >= ? AND region != 'unknown'
		GROUP BY region
		ORDER BY total DESC
	`
	var rows []domain.RegionSentiment
	if err := r.db.SelectContext(ctx, &rows, query, cutoff); err != nil {
		return nil, fmt.Errorf("get sentiment by region: %w", err)
	}
	return rows, nil
}

// TopTopics expands the topics list one row per element and returns the
// most frequent topics over the trailing window, optionally scoped to a
// region, sorted descending
func (r *SentimentRepository) TopTopics(ctx context.Context, region string, window time.Duration, limit int) ([]domain.TopicCount, error) {
	cutoff := time.Now().UTC().Add(-window)

	query := `
		SELECT je.value AS topic, COUNT(*) AS count
		FROM sentiments s, json_each(s.topics) je
		WHERE s.analyzed_at >= ?
	`
	args := []interface{}{cutoff}
	if region != "" {
		query += " AND s.region = ?"
		args = append(args, region)
	}
	query += `
		GROUP BY je.value
		ORDER BY count DESC
		LIMIT ?
	`
	args = append(args, limit)

	var rows []domain.TopicCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get top topics: %w", err)
	}
	return rows, nil
}

// Timeline returns hourly sentiment counts over the trailing window, one
// row per hour bucket and label, oldest first
func (r *SentimentRepository) Timeline(ctx context.Context, window time.Duration) ([]domain.TimelinePoint, error) {
	cutoff := time.Now().UTC().Add(-window)

	query := `
		SELECT strftime('%Y-%m-%dT%H:00', analyzed_at) AS bucket,
		       sentiment,
		       COUNT(*) AS count
		FROM sentiments
		WHERE analyzed_at >= ?
		GROUP BY bucket, sentiment
		ORDER BY bucket
	`
	var rows []domain.TimelinePoint
	if err := r.db.SelectContext(ctx, &rows, query, cutoff); err != nil {
		return nil, fmt.Errorf("get sentiment timeline: %w", err)
	}
	return rows, nil
}

// SourceBreakdown returns record counts per source over the trailing window
func (r *SentimentRepository) SourceBreakdown(ctx context.Context, window time.Duration) (map[string]int, error) {
	return r.groupCount(ctx, "source", window)
}

// LanguageDistribution returns record counts per language over the trailing window
func (r *SentimentRepository) LanguageDistribution(ctx context.Context, window time.Duration) (map[string]int, error) {
	return r.groupCount(ctx, "language", window)
}

func (r *SentimentRepository) groupCount(ctx context.Context, column string, window time.Duration) (map[string]int, error) {
	cutoff := time.Now().UTC().Add(-window)

	// column names come from the two callers above, never from user input
	query := fmt.Sprintf(`
		SELECT %s AS key, COUNT(*) AS count FROM sentiments
		WHERE analyzed_at >= ?
		GROUP BY %s
		ORDER BY count DESC
	`, column, column)

	rows := []struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, cutoff); err != nil {
		return nil, fmt.Errorf("group count by %s: %w", column, err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}

// GetRecent returns the newest sentiment records
func (r *SentimentRepository) GetRecent(ctx context.Context, limit int) ([]domain.SentimentRecord, error) {
	query := `
		SELECT * FROM sentiments
		ORDER BY analyzed_at DESC
		LIMIT ?
	`
	var sqlRecords []sentimentSQL
	if err := r.db.SelectContext(ctx, &sqlRecords, query, limit); err != nil {
		return nil, fmt.Errorf("get recent sentiments: %w", err)
	}

	records := make([]domain.SentimentRecord, len(sqlRecords))
	for i := range sqlRecords {
		records[i] = *toDomainSentiment(&sqlRecords[i])
	}
	return records, nil
}

func toSentimentSQL(rec *domain.SentimentRecord) *sentimentSQL {
	// sqlite compares bound times as text, store UTC so window cutoffs match
	analyzedAt := rec.AnalyzedAt.UTC()
	if rec.AnalyzedAt.IsZero() {
		analyzedAt = time.Now().UTC()
	}
	region := rec.Region
	if region == "" {
		region = domain.UnknownRegion
	}
	subRegion := rec.SubRegion
	if subRegion == "" {
		subRegion = domain.UnknownRegion
	}
	return &sentimentSQL{
		Text:       rec.Text,
		Source:     string(rec.Source),
		Sentiment:  string(rec.Sentiment),
		Confidence: rec.Confidence,
		Scores:     scoresSQL(rec.Scores),
		Language:   rec.Language,
		Topics:     stringsSQL(rec.Topics),
		Entities:   stringsSQL(rec.Entities),
		Region:     region,
		SubRegion:  subRegion,
		AnalyzedAt: analyzedAt,
	}
}

func toDomainSentiment(sqlRec *sentimentSQL) *domain.SentimentRecord {
	return &domain.SentimentRecord{
		ID:         sqlRec.ID,
		Text:       sqlRec.Text,
		Source:     domain.Source(sqlRec.Source),
		Sentiment:  domain.Sentiment(sqlRec.Sentiment),
		Confidence: sqlRec.Confidence,
		Scores:     map[string]float64(sqlRec.Scores),
		Language:   sqlRec.Language,
		Topics:     []string(sqlRec.Topics),
		Entities:   []string(sqlRec.Entities),
		Region:     sqlRec.Region,
		SubRegion:  sqlRec.SubRegion,
		AnalyzedAt: sqlRec.AnalyzedAt,
	}
}
