package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/regionpulse/pkg/domain"
)

// RawRepository handles raw scraped items
type RawRepository struct {
	db *sqlx.DB
}

// rawItemSQL represents a raw item for SQL operations
type rawItemSQL struct {
	ID        int64       `db:"id"`
	Source    string      `db:"source"`
	Text      string      `db:"text"`
	Title     string      `db:"title"`
	Author    string      `db:"author"`
	URL       string      `db:"url"`
	Location  string      `db:"location"`
	Language  string      `db:"language"`
	Metadata  metadataSQL `db:"metadata"`
	ScrapedAt time.Time   `db:"scraped_at"`
	Processed bool        `db:"processed"`
}

// NewRawRepository creates a new raw item repository
func NewRawRepository(db *sqlx.DB) *RawRepository {
	return &RawRepository{db: db}
}

// CreateItems inserts a batch of scraped items. Items with empty text are
// skipped; returns the number of rows written.
func (r *RawRepository) CreateItems(ctx context.Context, items []domain.RawItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO raw_items (
			source, text, title, author, url, location, language, metadata, scraped_at, processed
		) VALUES (
			:source, :text, :title, :author, :url, :location, :language, :metadata, :scraped_at, :processed
		)
	`

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	saved := 0
	err := retrier.Do(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("begin tx: %w", err)}
		}
		defer func() { _ = tx.Rollback() }()

		saved = 0
		for _, item := range items {
			if item.Text == "" {
				continue
			}
			sqlItem := toRawSQL(&item)
			if _, err := tx.NamedExecContext(ctx, query, sqlItem); err != nil {
				if isLockError(err) {
					return err
				}
				return &criticalError{err: fmt.Errorf("insert raw item: %w", err)}
			}
			saved++
		}

		if err := tx.Commit(); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("commit raw items: %w", err)}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("create raw items: %w", err)
	}

	return saved, nil
}

// GetUnprocessed retrieves raw items that have not been analyzed yet
func (r *RawRepository) GetUnprocessed(ctx context.Context, limit int) ([]domain.RawItem, error) {
	query := `
		SELECT * FROM raw_items
		WHERE processed = 0
		ORDER BY scraped_at
		LIMIT ?
	`
	var sqlItems []rawItemSQL
	if err := r.db.SelectContext(ctx, &sqlItems, query, limit); err != nil {
		return nil, fmt.Errorf("get unprocessed items: %w", err)
	}

	items := make([]domain.RawItem, len(sqlItems))
	for i := range sqlItems {
		items[i] = *toDomainRaw(&sqlItems[i])
	}
	return items, nil
}

// MarkProcessed flips the processed flag for the given ids
func (r *RawRepository) MarkProcessed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In("UPDATE raw_items SET processed = 1 WHERE id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("build mark processed query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// CountBySource reports raw item counts per source since the cutoff
func (r *RawRepository) CountBySource(ctx context.Context, since time.Time) (map[string]int, error) {
	rows := []struct {
		Source string `db:"source"`
		Count  int    `db:"count"`
	}{}

	query := `
		SELECT source, COUNT(*) AS count FROM raw_items
		WHERE scraped_at >= ?
		GROUP BY source
	`
	if err := r.db.SelectContext(ctx, &rows, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[strings.ToLower(row.Source)] = row.Count
	}
	return counts, nil
}

func toRawSQL(item *domain.RawItem) *rawItemSQL {
	// sqlite compares bound times as text, store UTC so window cutoffs match
	scrapedAt := item.ScrapedAt.UTC()
	if item.ScrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}
	language := item.Language
	if language == "" {
		language = "unknown"
	}
	return &rawItemSQL{
		ID:        item.ID,
		Source:    string(item.Source),
		Text:      item.Text,
		Title:     item.Title,
		Author:    item.Author,
		URL:       item.URL,
		Location:  item.Location,
		Language:  language,
		Metadata:  metadataSQL(item.Metadata),
		ScrapedAt: scrapedAt,
		Processed: item.Processed,
	}
}

func toDomainRaw(sqlItem *rawItemSQL) *domain.RawItem {
	return &domain.RawItem{
		ID:        sqlItem.ID,
		Source:    domain.Source(sqlItem.Source),
		Text:      sqlItem.Text,
		Title:     sqlItem.Title,
		Author:    sqlItem.Author,
		URL:       sqlItem.URL,
		Location:  sqlItem.Location,
		Language:  sqlItem.Language,
		Metadata:  map[string]string(sqlItem.Metadata),
		ScrapedAt: sqlItem.ScrapedAt,
		Processed: sqlItem.Processed,
	}
}
