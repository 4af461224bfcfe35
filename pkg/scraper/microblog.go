package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/regionpulse/pkg/config"
	"github.com/umputun/regionpulse/pkg/domain"
)

// MicroblogFetcher queries a generic microblog search endpoint.
// Disabled unless an endpoint URL is configured, in which case it stays
// registered and reports zero items so the orchestrator keeps a stable
// set of sources.
type MicroblogFetcher struct {
	client     *http.Client
	endpoint   string
	limit      int
	queryDelay time.Duration
	userAgent  string
}

// NewMicroblogFetcher creates a microblog fetcher from scrape config.
func NewMicroblogFetcher(cfg config.ScrapeConfig) *MicroblogFetcher {
	return &MicroblogFetcher{
		client:     &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.MicroblogURL,
		limit:      cfg.PerQueryLimit,
		queryDelay: cfg.QueryDelay,
		userAgent:  cfg.UserAgent,
	}
}

// Source implements Fetcher.
func (f *MicroblogFetcher) Source() domain.Source { return domain.SourceMicroblog }

// Fetch queries the configured endpoint once per keyword.
func (f *MicroblogFetcher) Fetch(ctx context.Context, keywords []string) []domain.RawItem {
	if f.endpoint == "" {
		log.Printf("[DEBUG] microblog fetcher disabled, no endpoint configured")
		return nil
	}

	var items []domain.RawItem
	for i, kw := range keywords {
		if ctx.Err() != nil {
			return items
		}
		if i > 0 {
			sleep(ctx, f.queryDelay)
		}
		res, err := f.search(ctx, kw)
		if err != nil {
			log.Printf("[WARN] microblog search failed for %q: %v", kw, err)
			continue
		}
		items = append(items, res...)
	}

	log.Printf("[INFO] microblog fetch completed, %d items for %d keywords", len(items), len(keywords))
	return items
}

func (f *MicroblogFetcher) search(ctx context.Context, query string) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(f.limit))

	var resp struct {
		Data []struct {
			Text     string `json:"text"`
			Author   string `json:"author"`
			URL      string `json:"url"`
			Location string `json:"location"`
			Language string `json:"language"`
			Likes    int    `json:"likes"`
			Reposts  int    `json:"reposts"`
		} `json:"data"`
	}
	if err := httpGetJSON(ctx, f.client, f.endpoint, params, f.userAgent, &resp); err != nil {
		return nil, fmt.Errorf("microblog search: %w", err)
	}

	items := make([]domain.RawItem, 0, len(resp.Data))
	for _, p := range resp.Data {
		if p.Text == "" {
			continue
		}
		items = append(items, domain.RawItem{
			Source:    domain.SourceMicroblog,
			Text:      p.Text,
			Author:    p.Author,
			URL:       p.URL,
			Location:  p.Location,
			Language:  p.Language,
			ScrapedAt: time.Now(),
			Metadata: map[string]string{
				"likes":   strconv.Itoa(p.Likes),
				"reposts": strconv.Itoa(p.Reposts),
			},
		})
	}
	return items, nil
}
