package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/regionpulse/pkg/config"
)

func testScrapeConfig() config.ScrapeConfig {
	return config.ScrapeConfig{
		ForumBoards:   "india",
		PerQueryLimit: 10,
		UserAgent:     "regionpulse-test/1.0",
	}
}

func TestForumFetcher_BackendChain(t *testing.T) {
	t.Run("primary wins when it has data", func(t *testing.T) {
		var pullpushCalls int32
		primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/posts/search", r.URL.Path)
			assert.Equal(t, "india", r.URL.Query().Get("subreddit"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"title":"roads are a mess","selftext":"potholes everywhere","author":"user1","permalink":"/r/india/comments/abc/roads","subreddit":"india","score":42,"num_comments":7}]}`))
		}))
		defer primary.Close()
		secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&pullpushCalls, 1)
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer secondary.Close()

		f := NewForumFetcher(testScrapeConfig())
		f.ArcticShiftURL = primary.URL
		f.PullPushURL = secondary.URL
		f.RedditURL = secondary.URL

		items := f.Fetch(context.Background(), []string{"roads"})
		require.Len(t, items, 1)
		assert.Equal(t, "roads are a mess\npotholes everywhere", items[0].Text)
		assert.Equal(t, "https://reddit.com/r/india/comments/abc/roads", items[0].URL)
		assert.Equal(t, "user1", items[0].Author)
		assert.Equal(t, "42", items[0].Metadata["score"])
		assert.Equal(t, int32(0), atomic.LoadInt32(&pullpushCalls), "fallback not consulted when primary has data")
	})

	t.Run("falls through failing and empty backends", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer failing.Close()
		empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer empty.Close()
		last := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/r/india/search.json", r.URL.Path)
			_, _ = w.Write([]byte(`{"data":{"children":[{"data":{"title":"from live site","author":"user2","permalink":"/r/india/comments/xyz/live","subreddit":"india"}}]}}`))
		}))
		defer last.Close()

		f := NewForumFetcher(testScrapeConfig())
		f.ArcticShiftURL = failing.URL
		f.PullPushURL = empty.URL
		f.RedditURL = last.URL

		items := f.Fetch(context.Background(), []string{"anything"})
		require.Len(t, items, 1)
		assert.Equal(t, "from live site", items[0].Text)
	})

	t.Run("all backends down reports zero items without error", func(t *testing.T) {
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer down.Close()

		f := NewForumFetcher(testScrapeConfig())
		f.ArcticShiftURL = down.URL
		f.PullPushURL = down.URL
		f.RedditURL = down.URL

		items := f.Fetch(context.Background(), []string{"anything"})
		assert.Empty(t, items)
	})

	t.Run("empty texts are skipped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[{"title":"","selftext":"","author":"ghost"},{"title":"real post","author":"user3"}]}`))
		}))
		defer srv.Close()

		f := NewForumFetcher(testScrapeConfig())
		f.ArcticShiftURL = srv.URL
		f.PullPushURL = srv.URL
		f.RedditURL = srv.URL

		items := f.Fetch(context.Background(), []string{"anything"})
		require.Len(t, items, 1)
		assert.Equal(t, "real post", items[0].Text)
	})
}

func TestMicroblogFetcher_Disabled(t *testing.T) {
	f := NewMicroblogFetcher(testScrapeConfig()) // no endpoint configured
	items := f.Fetch(context.Background(), []string{"anything"})
	assert.Empty(t, items)
}

func TestVideoFetcher_NoKey(t *testing.T) {
	f := NewVideoFetcher(testScrapeConfig()) // no api key configured
	items := f.Fetch(context.Background(), []string{"anything"})
	assert.Empty(t, items)
}

func TestMicroblogFetcher_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "water crisis", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"data":[{"text":"no water since morning","author":"citizen1","url":"https://mb.example.com/p/1","location":"Varanasi","language":"en","likes":12,"reposts":3}]}`))
	}))
	defer srv.Close()

	cfg := testScrapeConfig()
	cfg.MicroblogURL = srv.URL
	f := NewMicroblogFetcher(cfg)

	items := f.Fetch(context.Background(), []string{"water crisis"})
	require.Len(t, items, 1)
	assert.Equal(t, "no water since morning", items[0].Text)
	assert.Equal(t, "Varanasi", items[0].Location)
	assert.Equal(t, "12", items[0].Metadata["likes"])
}
