package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/regionpulse/pkg/domain"
	"github.com/umputun/regionpulse/pkg/geo"
	"github.com/umputun/regionpulse/pkg/scheduler"
	"github.com/umputun/regionpulse/pkg/scraper"
)

type fakeStore struct {
	summary    domain.SentimentSummary
	regions    []domain.RegionSentiment
	topics     []domain.TopicCount
	timeline   []domain.TimelinePoint
	alerts     []domain.Alert
	stats      map[string]int
	ackErr     error
	cleared    bool
	ackedID    int64
	statsErr   error
	regionErr  error
	lastWindow time.Duration
}

func (f *fakeStore) GetSummary(context.Context, string, time.Duration) (domain.SentimentSummary, error) {
	return f.summary, nil
}

func (f *fakeStore) GetByRegion(_ context.Context, window time.Duration) ([]domain.RegionSentiment, error) {
	f.lastWindow = window
	return f.regions, f.regionErr
}

func (f *fakeStore) Timeline(context.Context, time.Duration) ([]domain.TimelinePoint, error) {
	return f.timeline, nil
}

func (f *fakeStore) TopTopics(context.Context, string, time.Duration, int) ([]domain.TopicCount, error) {
	return f.topics, nil
}

func (f *fakeStore) SourceBreakdown(context.Context, time.Duration) (map[string]int, error) {
	return map[string]int{"forum": 2}, nil
}

func (f *fakeStore) LanguageDistribution(context.Context, time.Duration) (map[string]int, error) {
	return map[string]int{"en": 2}, nil
}

func (f *fakeStore) GetRecentSentiments(context.Context, int) ([]domain.SentimentRecord, error) {
	return nil, nil
}

func (f *fakeStore) GetRecentAlerts(context.Context, int) ([]domain.Alert, error) {
	return f.alerts, nil
}

func (f *fakeStore) AcknowledgeAlert(_ context.Context, id int64) error {
	if f.ackErr != nil {
		return f.ackErr
	}
	f.ackedID = id
	return nil
}

func (f *fakeStore) Stats(context.Context) (map[string]int, error) { return f.stats, f.statsErr }

func (f *fakeStore) ClearAll(context.Context) error {
	f.cleared = true
	return nil
}

type fakePipeline struct {
	report      scheduler.RunReport
	runErr      error
	spikes      []domain.Alert
	srcResult   scraper.Result
	srcErr      error
	gotKeywords []string
}

func (f *fakePipeline) RunPipeline(_ context.Context, keywords []string) (scheduler.RunReport, error) {
	f.gotKeywords = keywords
	return f.report, f.runErr
}

func (f *fakePipeline) RunSpikeCheck(context.Context) ([]domain.Alert, error) {
	return f.spikes, nil
}

func (f *fakePipeline) ScrapeSingleSource(context.Context, domain.Source, []string) (scraper.Result, error) {
	return f.srcResult, f.srcErr
}

type fakeServerNotifier struct {
	enabled bool
	sent    bool
}

func (f *fakeServerNotifier) SendTest() bool { f.sent = true; return true }
func (f *fakeServerNotifier) Enabled() bool  { return f.enabled }

type fakeConfig struct{}

func (fakeConfig) GetServerConfig() (string, time.Duration) { return ":0", 5 * time.Second }
func (fakeConfig) AnalysisWindow() time.Duration            { return 4 * time.Hour }
func (fakeConfig) ScrapeKeywords() []string                 { return []string{"roads"} }

type fakeReporter struct {
	lastRegion string
	lastData   string
	err        error
}

func (f *fakeReporter) SummarizeSentiments(_ context.Context, data string) (string, error) {
	f.lastData = data
	return "overall digest", f.err
}

func (f *fakeReporter) RegionReport(_ context.Context, region, data string) (string, error) {
	f.lastRegion = region
	f.lastData = data
	return "report for " + region, f.err
}

func testServer(store *fakeStore, pipeline *fakePipeline, notifier *fakeServerNotifier) *httptest.Server {
	srv := New(fakeConfig{}, store, pipeline, geo.NewResolver(), notifier, &fakeReporter{}, "test", false)
	return httptest.NewServer(srv.router)
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test url
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", http.NoBody) //nolint:gosec // test url
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestServer_Status(t *testing.T) {
	store := &fakeStore{stats: map[string]int{"raw_items": 5}}
	ts := testServer(store, &fakePipeline{}, &fakeServerNotifier{enabled: true})
	defer ts.Close()

	var body map[string]interface{}
	code := getJSON(t, ts.URL+"/api/status", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, true, body["notifications"])

	t.Run("store failure surfaces 500", func(t *testing.T) {
		broken := &fakeStore{statsErr: errors.New("db gone")}
		ts2 := testServer(broken, &fakePipeline{}, &fakeServerNotifier{})
		defer ts2.Close()
		assert.Equal(t, http.StatusInternalServerError, getJSON(t, ts2.URL+"/api/status", nil))
	})
}

func TestServer_ScrapeAndAnalyze(t *testing.T) {
	pipeline := &fakePipeline{report: scheduler.RunReport{
		Scraped: 15, Saved: 12, Analyzed: 12, Alerts: 1, Mapped: 58.0,
		Regions: map[string]int{"Varanasi": 7}, Summary: "mood is tense"}}
	ts := testServer(&fakeStore{}, pipeline, &fakeServerNotifier{})
	defer ts.Close()

	var body scheduler.RunReport
	code := getJSON(t, ts.URL+"/api/scrape-and-analyze", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 15, body.Scraped)
	assert.Equal(t, 12, body.Saved)
	assert.Equal(t, 1, body.Alerts)
	assert.InDelta(t, 58.0, body.Mapped, 0.01)
	assert.Equal(t, 7, body.Regions["Varanasi"])
	assert.Equal(t, "mood is tense", body.Summary)
	assert.Empty(t, pipeline.gotKeywords, "no override falls back to config keywords")

	t.Run("keywords override", func(t *testing.T) {
		code := getJSON(t, ts.URL+"/api/scrape-and-analyze?keywords=water%20supply,roads", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, []string{"water supply", "roads"}, pipeline.gotKeywords)
	})
}

func TestServer_ScrapeSource(t *testing.T) {
	pipeline := &fakePipeline{srcResult: scraper.Result{Total: 3, Counts: map[string]int{"forum": 3}}}
	ts := testServer(&fakeStore{}, pipeline, &fakeServerNotifier{})
	defer ts.Close()

	t.Run("known source", func(t *testing.T) {
		var body scraper.Result
		code := getJSON(t, ts.URL+"/api/scrape-source?source=forum", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 3, body.Total)
	})

	t.Run("unknown source rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/scrape-source?source=telegraph", nil))
	})

	t.Run("missing source rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/scrape-source", nil))
	})
}

func TestServer_Heatmap(t *testing.T) {
	store := &fakeStore{regions: []domain.RegionSentiment{
		{Region: "Varanasi", Total: 20, Negative: 15, Positive: 3, Neutral: 2},
		{Region: "Narnia", Total: 5}, // not in the reference table
	}}
	ts := testServer(store, &fakePipeline{}, &fakeServerNotifier{})
	defer ts.Close()

	var body struct {
		Points []heatmapPoint `json:"points"`
		Window string         `json:"window"`
	}
	code := getJSON(t, ts.URL+"/api/map/heatmap", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, body.Points, 1, "unmappable region dropped")

	p := body.Points[0]
	assert.Equal(t, "Varanasi", p.Region)
	assert.InDelta(t, 25.3176, p.Lat, 0.001)
	assert.InDelta(t, 75.0, p.NegativePct, 0.01)
	assert.InDelta(t, -0.6, p.Score, 0.001) // (3-15)/20
	assert.Equal(t, "4h0m0s", body.Window)

	t.Run("hours override shrinks the window", func(t *testing.T) {
		code := getJSON(t, ts.URL+"/api/map/heatmap?hours=2", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "2h0m0s", body.Window)
		assert.Equal(t, 2*time.Hour, store.lastWindow)
	})
}

func TestServer_Timeline(t *testing.T) {
	store := &fakeStore{timeline: []domain.TimelinePoint{
		{Bucket: "2026-08-31T14:00", Sentiment: domain.SentimentNegative, Count: 5},
		{Bucket: "2026-08-31T15:00", Sentiment: domain.SentimentPositive, Count: 2},
	}}
	ts := testServer(store, &fakePipeline{}, &fakeServerNotifier{})
	defer ts.Close()

	var body struct {
		Timeline []domain.TimelinePoint `json:"timeline"`
	}
	code := getJSON(t, ts.URL+"/api/dashboard/timeline", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, body.Timeline, 2)
	assert.Equal(t, "2026-08-31T14:00", body.Timeline[0].Bucket)
	assert.Equal(t, 5, body.Timeline[0].Count)
}

func TestServer_GenerateReport(t *testing.T) {
	store := &fakeStore{
		summary: domain.SentimentSummary{Positive: 3, Negative: 15, Neutral: 2, Total: 20, AvgConfidence: 0.8},
		regions: []domain.RegionSentiment{{Region: "Varanasi", Total: 20, Negative: 15}},
		topics:  []domain.TopicCount{{Topic: "roads", Count: 4}},
	}
	reporter := &fakeReporter{}
	srv := New(fakeConfig{}, store, &fakePipeline{}, geo.NewResolver(), &fakeServerNotifier{}, reporter, "test", false)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	t.Run("overall", func(t *testing.T) {
		var body struct {
			Report  string                   `json:"report"`
			Regions []domain.RegionSentiment `json:"regions"`
		}
		code := getJSON(t, ts.URL+"/api/generate-report", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "overall digest", body.Report)
		require.Len(t, body.Regions, 1)
		assert.Contains(t, reporter.lastData, "Varanasi")
		assert.Contains(t, reporter.lastData, "roads(4)")
	})

	t.Run("single region", func(t *testing.T) {
		var body struct {
			Region string `json:"region"`
			Report string `json:"report"`
		}
		code := getJSON(t, ts.URL+"/api/generate-report?region=Varanasi&hours=6", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Varanasi", body.Region)
		assert.Equal(t, "report for Varanasi", body.Report)
		assert.Equal(t, "Varanasi", reporter.lastRegion)
		assert.Contains(t, reporter.lastData, "Total mentions: 20")
	})

	t.Run("llm failure surfaces 500", func(t *testing.T) {
		broken := &fakeReporter{err: errors.New("model offline")}
		srv2 := New(fakeConfig{}, store, &fakePipeline{}, geo.NewResolver(), &fakeServerNotifier{}, broken, "test", false)
		ts2 := httptest.NewServer(srv2.router)
		defer ts2.Close()
		assert.Equal(t, http.StatusInternalServerError, getJSON(t, ts2.URL+"/api/generate-report", nil))
	})
}

func TestServer_Regions(t *testing.T) {
	ts := testServer(&fakeStore{}, &fakePipeline{}, &fakeServerNotifier{})
	defer ts.Close()

	var regions []domain.Region
	code := getJSON(t, ts.URL+"/api/map/regions", &regions)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, regions)
	assert.NotZero(t, regions[0].Lat)
}

func TestServer_Dashboard(t *testing.T) {
	store := &fakeStore{
		summary: domain.SentimentSummary{Positive: 3, Negative: 5, Neutral: 2, Total: 10, AvgConfidence: 0.8},
		topics:  []domain.TopicCount{{Topic: "roads", Count: 4}},
	}
	ts := testServer(store, &fakePipeline{}, &fakeServerNotifier{})
	defer ts.Close()

	t.Run("summary", func(t *testing.T) {
		var body domain.SentimentSummary
		code := getJSON(t, ts.URL+"/api/dashboard/summary?region=Varanasi", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 10, body.Total)
	})

	t.Run("topics", func(t *testing.T) {
		var body []domain.TopicCount
		code := getJSON(t, ts.URL+"/api/dashboard/topics", &body)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, body, 1)
		assert.Equal(t, "roads", body[0].Topic)
	})

	t.Run("sources", func(t *testing.T) {
		var body map[string]int
		code := getJSON(t, ts.URL+"/api/dashboard/sources", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 2, body["forum"])
	})

	t.Run("languages", func(t *testing.T) {
		var body map[string]int
		code := getJSON(t, ts.URL+"/api/dashboard/languages", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 2, body["en"])
	})
}

func TestServer_Alerts(t *testing.T) {
	store := &fakeStore{alerts: []domain.Alert{{ID: 7, Region: "Varanasi", Severity: domain.SeverityHigh}}}
	ts := testServer(store, &fakePipeline{spikes: []domain.Alert{{Region: "Varanasi"}}}, &fakeServerNotifier{enabled: true})
	defer ts.Close()

	t.Run("recent", func(t *testing.T) {
		var body []domain.Alert
		code := getJSON(t, ts.URL+"/api/alerts/recent", &body)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, body, 1)
		assert.Equal(t, int64(7), body[0].ID)
	})

	t.Run("on-demand check", func(t *testing.T) {
		code, body := postJSON(t, ts.URL+"/api/alerts/check")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(1), body["triggered"])
	})

	t.Run("test notification", func(t *testing.T) {
		code, body := postJSON(t, ts.URL+"/api/alerts/test")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["sent"])
	})

	t.Run("test notification without sinks", func(t *testing.T) {
		ts2 := testServer(&fakeStore{}, &fakePipeline{}, &fakeServerNotifier{enabled: false})
		defer ts2.Close()
		code, _ := postJSON(t, ts2.URL+"/api/alerts/test")
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("acknowledge", func(t *testing.T) {
		code, _ := postJSON(t, ts.URL+"/api/alerts/7/acknowledge")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, int64(7), store.ackedID)
	})

	t.Run("acknowledge bad id", func(t *testing.T) {
		code, _ := postJSON(t, ts.URL+"/api/alerts/notanumber/acknowledge")
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("acknowledge missing alert", func(t *testing.T) {
		broken := &fakeStore{ackErr: fmt.Errorf("alert 99 not found")}
		ts2 := testServer(broken, &fakePipeline{}, &fakeServerNotifier{})
		defer ts2.Close()
		code, _ := postJSON(t, ts2.URL+"/api/alerts/99/acknowledge")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestServer_ClearData(t *testing.T) {
	store := &fakeStore{}
	ts := testServer(store, &fakePipeline{}, &fakeServerNotifier{})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/data", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, store.cleared)
}
