package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/regionpulse/pkg/domain"
)

// AlertRepository handles triggered alerts
type AlertRepository struct {
	db *sqlx.DB
}

// alertSQL represents an alert for SQL operations
type alertSQL struct {
	ID             int64     `db:"id"`
	Region         string    `db:"region"`
	Issue          string    `db:"issue"`
	Sentiment      string    `db:"sentiment"`
	Percentage     float64   `db:"percentage"`
	ChangeEstimate float64   `db:"change_estimate"`
	Severity       string    `db:"severity"`
	TotalMentions  int       `db:"total_mentions"`
	TriggeredAt    time.Time `db:"triggered_at"`
	Acknowledged   bool      `db:"acknowledged"`
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts one alert
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	query := `
		INSERT INTO alerts (
			region, issue, sentiment, percentage, change_estimate,
			severity, total_mentions, triggered_at, acknowledged
		) VALUES (
			:region, :issue, :sentiment, :percentage, :change_estimate,
			:severity, :total_mentions, :triggered_at, :acknowledged
		)
	`

	// sqlite compares bound times as text, store UTC so ordering and
	// window cutoffs stay consistent across host zones
	triggeredAt := alert.TriggeredAt.UTC()
	if alert.TriggeredAt.IsZero() {
		triggeredAt = time.Now().UTC()
	}

	sqlAlert := &alertSQL{
		Region:         alert.Region,
		Issue:          alert.Issue,
		Sentiment:      string(alert.Sentiment),
		Percentage:     alert.Percentage,
		ChangeEstimate: alert.ChangeEstimate,
		Severity:       string(alert.Severity),
		TotalMentions:  alert.TotalMentions,
		TriggeredAt:    triggeredAt,
		Acknowledged:   alert.Acknowledged,
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		result, err := r.db.NamedExecContext(ctx, query, sqlAlert)
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("create alert: %w", err)}
		}

		id, err := result.LastInsertId()
		if err != nil {
			return &criticalError{err: fmt.Errorf("get insert id: %w", err)}
		}
		alert.ID = id
		alert.TriggeredAt = triggeredAt
		return nil
	})
}

// GetRecent returns the newest alerts sorted by trigger time descending
func (r *AlertRepository) GetRecent(ctx context.Context, limit int) ([]domain.Alert, error) {
	query := `
		SELECT * FROM alerts
		ORDER BY triggered_at DESC
		LIMIT ?
	`
	var sqlAlerts []alertSQL
	if err := r.db.SelectContext(ctx, &sqlAlerts, query, limit); err != nil {
		return nil, fmt.Errorf("get recent alerts: %w", err)
	}

	alerts := make([]domain.Alert, len(sqlAlerts))
	for i, a := range sqlAlerts {
		alerts[i] = domain.Alert{
			ID:             a.ID,
			Region:         a.Region,
			Issue:          a.Issue,
			Sentiment:      domain.Sentiment(a.Sentiment),
			Percentage:     a.Percentage,
			ChangeEstimate: a.ChangeEstimate,
			Severity:       domain.Severity(a.Severity),
			TotalMentions:  a.TotalMentions,
			TriggeredAt:    a.TriggeredAt,
			Acknowledged:   a.Acknowledged,
		}
	}
	return alerts, nil
}

// Acknowledge marks an alert as acknowledged by an operator
func (r *AlertRepository) Acknowledge(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "UPDATE alerts SET acknowledged = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert %d not found", id)
	}
	return nil
}
