package server

import (
	"context"
	"time"

	"github.com/umputun/regionpulse/pkg/domain"
	"github.com/umputun/regionpulse/pkg/repository"
)

// RepositoryAdapter flattens the split repositories into the single
// Store surface the handlers consume.
type RepositoryAdapter struct {
	repos *repository.Repositories
}

// NewRepositoryAdapter creates an adapter over the shared repositories.
func NewRepositoryAdapter(repos *repository.Repositories) *RepositoryAdapter {
	return &RepositoryAdapter{repos: repos}
}

// GetSummary delegates to the sentiment repository
func (a *RepositoryAdapter) GetSummary(ctx context.Context, region string, window time.Duration) (domain.SentimentSummary, error) {
	return a.repos.Sentiment.GetSummary(ctx, region, window)
}

// GetByRegion delegates to the sentiment repository
func (a *RepositoryAdapter) GetByRegion(ctx context.Context, window time.Duration) ([]domain.RegionSentiment, error) {
	return a.repos.Sentiment.GetByRegion(ctx, window)
}

// Timeline delegates to the sentiment repository
func (a *RepositoryAdapter) Timeline(ctx context.Context, window time.Duration) ([]domain.TimelinePoint, error) {
	return a.repos.Sentiment.Timeline(ctx, window)
}

// TopTopics delegates to the sentiment repository
func (a *RepositoryAdapter) TopTopics(ctx context.Context, region string, window time.Duration, limit int) ([]domain.TopicCount, error) {
	return a.repos.Sentiment.TopTopics(ctx, region, window, limit)
}

// SourceBreakdown delegates to the sentiment repository
func (a *RepositoryAdapter) SourceBreakdown(ctx context.Context, window time.Duration) (map[string]int, error) {
	return a.repos.Sentiment.SourceBreakdown(ctx, window)
}

// LanguageDistribution delegates to the sentiment repository
func (a *RepositoryAdapter) LanguageDistribution(ctx context.Context, window time.Duration) (map[string]int, error) {
	return a.repos.Sentiment.LanguageDistribution(ctx, window)
}

// GetRecentSentiments delegates to the sentiment repository
func (a *RepositoryAdapter) GetRecentSentiments(ctx context.Context, limit int) ([]domain.SentimentRecord, error) {
	return a.repos.Sentiment.GetRecent(ctx, limit)
}

// GetRecentAlerts delegates to the alert repository
func (a *RepositoryAdapter) GetRecentAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	return a.repos.Alert.GetRecent(ctx, limit)
}

// AcknowledgeAlert delegates to the alert repository
func (a *RepositoryAdapter) AcknowledgeAlert(ctx context.Context, id int64) error {
	return a.repos.Alert.Acknowledge(ctx, id)
}

// Stats delegates to the shared repositories
func (a *RepositoryAdapter) Stats(ctx context.Context) (map[string]int, error) {
	return a.repos.Stats(ctx)
}

// ClearAll delegates to the shared repositories
func (a *RepositoryAdapter) ClearAll(ctx context.Context) error {
	return a.repos.ClearAll(ctx)
}
