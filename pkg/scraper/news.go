package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed"

	"github.com/umputun/regionpulse/pkg/config"
	"github.com/umputun/regionpulse/pkg/domain"
)

// NewsFetcher pulls article headlines and descriptions. The keyed API
// comes first when a credential is configured; the public RSS search
// feeds serve as keyless fallbacks, one per interface language.
type NewsFetcher struct {
	NewsAPIURL    string // base, default https://newsapi.org/v2
	GoogleNewsURL string // base, default https://news.google.com/rss

	client     *http.Client
	parser     *gofeed.Parser
	apiKey     string
	limit      int
	queryDelay time.Duration
	userAgent  string
}

// NewNewsFetcher creates a news fetcher from scrape config.
func NewNewsFetcher(cfg config.ScrapeConfig) *NewsFetcher {
	client := &http.Client{Timeout: cfg.Timeout}
	parser := gofeed.NewParser()
	parser.Client = client
	if cfg.UserAgent != "" {
		parser.UserAgent = cfg.UserAgent
	}
	return &NewsFetcher{
		NewsAPIURL:    "https://newsapi.org/v2",
		GoogleNewsURL: "https://news.google.com/rss",
		client:        client,
		parser:        parser,
		apiKey:        cfg.NewsAPIKey,
		limit:         cfg.PerQueryLimit,
		queryDelay:    cfg.QueryDelay,
		userAgent:     cfg.UserAgent,
	}
}

// Source implements Fetcher.
func (f *NewsFetcher) Source() domain.Source { return domain.SourceNews }

// Fetch runs every keyword through the backend chain, first non-empty
// result wins per keyword. Without an API key the chain starts at the
// RSS backends.
func (f *NewsFetcher) Fetch(ctx context.Context, keywords []string) []domain.RawItem {
	type backend struct {
		name   string
		search func(ctx context.Context, query string) ([]domain.RawItem, error)
	}
	backends := []backend{}
	if f.apiKey != "" {
		backends = append(backends, backend{"newsapi", f.searchNewsAPI})
	}
	backends = append(backends,
		backend{"google-news-en", func(ctx context.Context, q string) ([]domain.RawItem, error) {
			return f.searchGoogleNews(ctx, q, "en-IN", "IN:en")
		}},
		backend{"google-news-hi", func(ctx context.Context, q string) ([]domain.RawItem, error) {
			return f.searchGoogleNews(ctx, q, "hi-IN", "IN:hi")
		}},
	)

	var items []domain.RawItem
	for i, kw := range keywords {
		if ctx.Err() != nil {
			return items
		}
		if i > 0 {
			sleep(ctx, f.queryDelay)
		}
		for _, b := range backends {
			res, err := b.search(ctx, kw)
			if err != nil {
				log.Printf("[DEBUG] news backend %s failed for %q: %v", b.name, kw, err)
				continue
			}
			if len(res) == 0 {
				continue
			}
			items = append(items, res...)
			break
		}
	}

	log.Printf("[INFO] news fetch completed, %d items for %d keywords", len(items), len(keywords))
	return items
}

func (f *NewsFetcher) searchNewsAPI(ctx context.Context, query string) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(f.limit))
	params.Set("apiKey", f.apiKey)

	var resp struct {
		Status   string `json:"status"`
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Author      string `json:"author"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := httpGetJSON(ctx, f.client, f.NewsAPIURL+"/everything", params, f.userAgent, &resp); err != nil {
		return nil, fmt.Errorf("newsapi search: %w", err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi returned status %q", resp.Status)
	}

	items := make([]domain.RawItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		title := strings.TrimSpace(a.Title)
		text := title
		if desc := strings.TrimSpace(a.Description); desc != "" {
			text += "\n" + desc
		}
		if text == "" {
			continue
		}
		items = append(items, domain.RawItem{
			Source:    domain.SourceNews,
			Text:      text,
			Title:     title,
			Author:    a.Author,
			URL:       a.URL,
			ScrapedAt: time.Now(),
			Metadata: map[string]string{
				"outlet":       a.Source.Name,
				"published_at": a.PublishedAt,
			},
		})
	}
	return items, nil
}

func (f *NewsFetcher) searchGoogleNews(ctx context.Context, query, hl, ceid string) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", hl)
	params.Set("gl", "IN")
	params.Set("ceid", ceid)

	feed, err := f.parser.ParseURLWithContext(f.GoogleNewsURL+"/search?"+params.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("google news rss: %w", err)
	}

	items := make([]domain.RawItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if len(items) >= f.limit {
			break
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		item := domain.RawItem{
			Source:    domain.SourceNews,
			Text:      title,
			Title:     title,
			URL:       it.Link,
			ScrapedAt: time.Now(),
			Metadata:  map[string]string{},
		}
		if it.PublishedParsed != nil {
			item.Metadata["published_at"] = it.PublishedParsed.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return items, nil
}
