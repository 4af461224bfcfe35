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

	"github.com/umputun/regionpulse/pkg/config"
	"github.com/umputun/regionpulse/pkg/domain"
)

// ForumFetcher pulls recent discussion posts. The primary archive
// mirrors are preferred over the live site because they tolerate
// unauthenticated access better; the live JSON endpoint is a last
// resort and is frequently rate limited.
type ForumFetcher struct {
	ArcticShiftURL string // base, default https://arctic-shift.photon-reddit.com/api
	PullPushURL    string // base, default https://api.pullpush.io
	RedditURL      string // base, default https://old.reddit.com

	client     *http.Client
	boards     []string
	limit      int
	queryDelay time.Duration
	userAgent  string
}

// NewForumFetcher creates a forum fetcher from scrape config.
func NewForumFetcher(cfg config.ScrapeConfig) *ForumFetcher {
	boards := []string{}
	for _, b := range strings.Split(cfg.ForumBoards, ",") {
		if b = strings.TrimSpace(b); b != "" {
			boards = append(boards, b)
		}
	}
	return &ForumFetcher{
		ArcticShiftURL: "https://arctic-shift.photon-reddit.com/api",
		PullPushURL:    "https://api.pullpush.io",
		RedditURL:      "https://old.reddit.com",
		client:         &http.Client{Timeout: cfg.Timeout},
		boards:         boards,
		limit:          cfg.PerQueryLimit,
		queryDelay:     cfg.QueryDelay,
		userAgent:      cfg.UserAgent,
	}
}

// Source implements Fetcher.
func (f *ForumFetcher) Source() domain.Source { return domain.SourceForum }

// Fetch queries every board for every keyword, trying backends in order
// and keeping the first one that returns anything for a given query.
// Partial results are never merged across backends within one query.
func (f *ForumFetcher) Fetch(ctx context.Context, keywords []string) []domain.RawItem {
	backends := []struct {
		name   string
		search func(ctx context.Context, board, query string) ([]domain.RawItem, error)
	}{
		{"arctic-shift", f.searchArcticShift},
		{"pullpush", f.searchPullPush},
		{"reddit-json", f.searchReddit},
	}

	var items []domain.RawItem
	first := true
	for _, board := range f.boards {
		for _, kw := range keywords {
			if ctx.Err() != nil {
				return items
			}
			if !first {
				sleep(ctx, f.queryDelay)
			}
			first = false

			for _, b := range backends {
				res, err := b.search(ctx, board, kw)
				if err != nil {
					log.Printf("[DEBUG] forum backend %s failed for %q in %s: %v", b.name, kw, board, err)
					continue
				}
				if len(res) == 0 {
					continue
				}
				items = append(items, res...)
				break
			}
		}
	}

	log.Printf("[INFO] forum fetch completed, %d items from %d boards", len(items), len(f.boards))
	return items
}

type forumPost struct {
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

func (f *ForumFetcher) searchArcticShift(ctx context.Context, board, query string) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("subreddit", board)
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(f.limit))
	params.Set("sort", "desc")

	var resp struct {
		Data []forumPost `json:"data"`
	}
	if err := httpGetJSON(ctx, f.client, f.ArcticShiftURL+"/posts/search", params, f.userAgent, &resp); err != nil {
		return nil, fmt.Errorf("arctic shift search: %w", err)
	}
	return f.toItems(resp.Data), nil
}

func (f *ForumFetcher) searchPullPush(ctx context.Context, board, query string) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("subreddit", board)
	params.Set("q", query)
	params.Set("size", strconv.Itoa(f.limit))

	var resp struct {
		Data []forumPost `json:"data"`
	}
	if err := httpGetJSON(ctx, f.client, f.PullPushURL+"/reddit/search/submission/", params, f.userAgent, &resp); err != nil {
		return nil, fmt.Errorf("pullpush search: %w", err)
	}
	return f.toItems(resp.Data), nil
}

func (f *ForumFetcher) searchReddit(ctx context.Context, board, query string) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("restrict_sr", "on")
	params.Set("sort", "new")
	params.Set("limit", strconv.Itoa(f.limit))

	var resp struct {
		Data struct {
			Children []struct {
				Data forumPost `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	searchURL := fmt.Sprintf("%s/r/%s/search.json", f.RedditURL, board)
	if err := httpGetJSON(ctx, f.client, searchURL, params, f.userAgent, &resp); err != nil {
		return nil, fmt.Errorf("reddit search: %w", err)
	}

	posts := make([]forumPost, 0, len(resp.Data.Children))
	for _, c := range resp.Data.Children {
		posts = append(posts, c.Data)
	}
	return f.toItems(posts), nil
}

func (f *ForumFetcher) toItems(posts []forumPost) []domain.RawItem {
	items := make([]domain.RawItem, 0, len(posts))
	for _, p := range posts {
		title := strings.TrimSpace(p.Title)
		text := title
		if body := strings.TrimSpace(p.Selftext); body != "" {
			text += "\n" + body
		}
		if text == "" {
			continue
		}
		item := domain.RawItem{
			Source:    domain.SourceForum,
			Text:      text,
			Title:     title,
			Author:    p.Author,
			ScrapedAt: time.Now(),
			Metadata: map[string]string{
				"subreddit":    p.Subreddit,
				"score":        strconv.Itoa(p.Score),
				"num_comments": strconv.Itoa(p.NumComments),
			},
		}
		if p.Permalink != "" {
			item.URL = "https://reddit.com" + p.Permalink
		}
		if p.CreatedUTC > 0 {
			item.Metadata["created_utc"] = strconv.FormatInt(int64(p.CreatedUTC), 10)
		}
		items = append(items, item)
	}
	return items
}
