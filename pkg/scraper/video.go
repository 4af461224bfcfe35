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

// VideoFetcher pulls viewer comments from recently published videos
// matching each keyword. Requires an API credential; without one the
// fetcher stays registered but reports zero items.
type VideoFetcher struct {
	APIURL string // base, default https://www.googleapis.com/youtube/v3

	client     *http.Client
	apiKey     string
	maxVideos  int
	limit      int
	queryDelay time.Duration
	userAgent  string
}

// NewVideoFetcher creates a video comments fetcher from scrape config.
func NewVideoFetcher(cfg config.ScrapeConfig) *VideoFetcher {
	return &VideoFetcher{
		APIURL:     "https://www.googleapis.com/youtube/v3",
		client:     &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.VideoAPIKey,
		maxVideos:  cfg.MaxVideos,
		limit:      cfg.PerQueryLimit,
		queryDelay: cfg.QueryDelay,
		userAgent:  cfg.UserAgent,
	}
}

// Source implements Fetcher.
func (f *VideoFetcher) Source() domain.Source { return domain.SourceVideo }

// Fetch searches for videos per keyword and collects top-level comments
// from the first few results of each search.
func (f *VideoFetcher) Fetch(ctx context.Context, keywords []string) []domain.RawItem {
	if f.apiKey == "" {
		log.Printf("[DEBUG] video fetcher disabled, no api key configured")
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

		videos, err := f.searchVideos(ctx, kw)
		if err != nil {
			log.Printf("[WARN] video search failed for %q: %v", kw, err)
			continue
		}
		for _, videoID := range videos {
			comments, err := f.fetchComments(ctx, videoID)
			if err != nil {
				log.Printf("[DEBUG] comments fetch failed for video %s: %v", videoID, err)
				continue
			}
			items = append(items, comments...)
		}
	}

	log.Printf("[INFO] video fetch completed, %d comments for %d keywords", len(items), len(keywords))
	return items
}

func (f *VideoFetcher) searchVideos(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("order", "date")
	params.Set("regionCode", "IN")
	params.Set("maxResults", strconv.Itoa(f.maxVideos))
	params.Set("key", f.apiKey)

	var resp struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := httpGetJSON(ctx, f.client, f.APIURL+"/search", params, f.userAgent, &resp); err != nil {
		return nil, fmt.Errorf("video search: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}
	return ids, nil
}

func (f *VideoFetcher) fetchComments(ctx context.Context, videoID string) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("videoId", videoID)
	params.Set("order", "relevance")
	params.Set("textFormat", "plainText")
	params.Set("maxResults", strconv.Itoa(f.limit))
	params.Set("key", f.apiKey)

	var resp struct {
		Items []struct {
			Snippet struct {
				TopLevelComment struct {
					Snippet struct {
						TextDisplay string `json:"textDisplay"`
						Author      string `json:"authorDisplayName"`
						LikeCount   int    `json:"likeCount"`
						PublishedAt string `json:"publishedAt"`
					} `json:"snippet"`
				} `json:"topLevelComment"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := httpGetJSON(ctx, f.client, f.APIURL+"/commentThreads", params, f.userAgent, &resp); err != nil {
		return nil, fmt.Errorf("comment threads: %w", err)
	}

	videoURL := "https://www.youtube.com/watch?v=" + videoID
	items := make([]domain.RawItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		c := it.Snippet.TopLevelComment.Snippet
		if c.TextDisplay == "" {
			continue
		}
		items = append(items, domain.RawItem{
			Source:    domain.SourceVideo,
			Text:      c.TextDisplay,
			Author:    c.Author,
			URL:       videoURL,
			ScrapedAt: time.Now(),
			Metadata: map[string]string{
				"video_id":     videoID,
				"like_count":   strconv.Itoa(c.LikeCount),
				"published_at": c.PublishedAt,
			},
		})
	}
	return items, nil
}
