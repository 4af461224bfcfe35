// Package alerts implements windowed negative-sentiment spike detection
// over regional aggregates.
package alerts

import (
	"context"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/regionpulse/pkg/config"
	"github.com/umputun/regionpulse/pkg/domain"
)

// AggregateStore serves the windowed regional aggregates.
type AggregateStore interface {
	GetByRegion(ctx context.Context, window time.Duration) ([]domain.RegionSentiment, error)
	TopTopics(ctx context.Context, region string, window time.Duration, limit int) ([]domain.TopicCount, error)
}

// AlertStore persists triggered alerts.
type AlertStore interface {
	Create(ctx context.Context, alert *domain.Alert) error
}

// Notifier delivers alerts and digests, best effort.
type Notifier interface {
	SendAlert(alert domain.Alert) bool
	SendSummary(regions []domain.RegionSentiment) bool
}

// Detector checks regional aggregates against configured thresholds.
// Every run evaluates the trailing window from scratch; a persistent
// spike fires on every run until sentiment recovers, which is the
// intended operator experience.
type Detector struct {
	store    AggregateStore
	alerts   AlertStore
	notifier Notifier
	cfg      config.AlertsConfig
}

// NewDetector creates a detector over the given stores and notifier.
func NewDetector(store AggregateStore, alerts AlertStore, notifier Notifier, cfg config.AlertsConfig) *Detector {
	if cfg.Window <= 0 {
		cfg.Window = 4 * time.Hour
	}
	if cfg.NegativeThreshold <= 0 {
		cfg.NegativeThreshold = 60
	}
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = 80
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 10
	}
	return &Detector{store: store, alerts: alerts, notifier: notifier, cfg: cfg}
}

// CheckForSpikes evaluates every region with enough samples in the
// trailing window and returns the alerts triggered this run. Alerts are
// persisted before notification; a failing sink does not undo an alert.
func (d *Detector) CheckForSpikes(ctx context.Context) ([]domain.Alert, error) {
	regions, err := d.store.GetByRegion(ctx, d.cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("load regional aggregates: %w", err)
	}

	var triggered []domain.Alert
	for _, rs := range regions {
		if rs.Total < d.cfg.MinSamples {
			continue
		}
		negativePct := float64(rs.Negative) / float64(rs.Total) * 100
		// strictly above the threshold, a region sitting exactly on it
		// stays quiet
		if negativePct <= d.cfg.NegativeThreshold {
			continue
		}

		severity := domain.SeverityMedium
		if negativePct > d.cfg.HighThreshold {
			severity = domain.SeverityHigh
		}

		alert := domain.Alert{
			Region:    rs.Region,
			Issue:     d.topIssue(ctx, rs.Region),
			Sentiment: domain.SentimentNegative,
			// crude magnitude estimate until enough history exists for
			// a real baseline comparison
			ChangeEstimate: negativePct * 1.5,
			Percentage:     negativePct,
			Severity:       severity,
			TotalMentions:  rs.Total,
			TriggeredAt:    time.Now(),
		}

		if err := d.alerts.Create(ctx, &alert); err != nil {
			log.Printf("[WARN] failed to persist alert for %s: %v", rs.Region, err)
			continue
		}
		if d.notifier != nil && !d.notifier.SendAlert(alert) {
			log.Printf("[WARN] alert %d for %s not delivered to any sink", alert.ID, alert.Region)
		}
		log.Printf("[INFO] %s spike alert for %s, %.1f%% negative of %d mentions, issue %q",
			alert.Severity, alert.Region, alert.Percentage, alert.TotalMentions, alert.Issue)
		triggered = append(triggered, alert)
	}

	// a run that fired alerts also pushes a regional digest so the
	// operator sees the spike in context
	if len(triggered) > 0 && d.notifier != nil {
		d.notifier.SendSummary(regions)
	}

	return triggered, nil
}

// topIssue names the most mentioned topic in the region's window,
// falling back to a generic label when no topics were extracted.
func (d *Detector) topIssue(ctx context.Context, region string) string {
	topics, err := d.store.TopTopics(ctx, region, d.cfg.Window, 1)
	if err != nil {
		log.Printf("[DEBUG] top topic lookup failed for %s: %v", region, err)
		return "General Dissatisfaction"
	}
	if len(topics) == 0 || topics[0].Topic == "" {
		return "General Dissatisfaction"
	}
	return topics[0].Topic
}
