package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/regionpulse/pkg/domain"
)

// statusHandler returns server status and storage counters
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		lgr.Printf("[ERROR] failed to get storage stats: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	status := map[string]interface{}{
		"status":        "ok",
		"version":       s.version,
		"time":          time.Now().UTC(),
		"storage":       stats,
		"notifications": s.notifier.Enabled(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// scrapeAndAnalyzeHandler triggers a full pipeline run, with optional
// keyword override via ?keywords=a,b
func (s *Server) scrapeAndAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.pipeline.RunPipeline(r.Context(), queryKeywords(r))
	if err != nil {
		lgr.Printf("[ERROR] on-demand pipeline run failed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, res)
}

// scrapeSourceHandler triggers a single-source scrape and analysis
func (s *Server) scrapeSourceHandler(w http.ResponseWriter, r *http.Request) {
	source := domain.Source(strings.ToLower(r.URL.Query().Get("source")))
	switch source {
	case domain.SourceForum, domain.SourceNews, domain.SourceVideo, domain.SourceMicroblog:
	default:
		renderError(w, r, fmt.Errorf("unknown source %q", source), http.StatusBadRequest)
		return
	}

	keywords := queryKeywords(r)
	if len(keywords) == 0 {
		keywords = s.config.ScrapeKeywords()
	}

	res, err := s.pipeline.ScrapeSingleSource(r.Context(), source, keywords)
	if err != nil {
		lgr.Printf("[ERROR] single-source run failed for %s: %v", source, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, res)
}

// heatmapPoint is one region on the map with its windowed aggregate
type heatmapPoint struct {
	Region      string  `json:"region"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Total       int     `json:"total"`
	Positive    int     `json:"positive"`
	Negative    int     `json:"negative"`
	Neutral     int     `json:"neutral"`
	Score       float64 `json:"score"` // -1 all negative to +1 all positive
	NegativePct float64 `json:"negative_pct"`
}

// heatmapHandler returns regional aggregates joined with coordinates
func (s *Server) heatmapHandler(w http.ResponseWriter, r *http.Request) {
	window := s.window(r)
	regions, err := s.store.GetByRegion(r.Context(), window)
	if err != nil {
		lgr.Printf("[ERROR] failed to get regional aggregates: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	points := make([]heatmapPoint, 0, len(regions))
	for _, rs := range regions {
		info, ok := s.resolver.RegionInfo(rs.Region)
		if !ok {
			continue // off-map aggregation keys are not plottable
		}
		p := heatmapPoint{
			Region:   rs.Region,
			Lat:      info.Lat,
			Lng:      info.Lng,
			Total:    rs.Total,
			Positive: rs.Positive,
			Negative: rs.Negative,
			Neutral:  rs.Neutral,
		}
		if rs.Total > 0 {
			p.Score = float64(rs.Positive-rs.Negative) / float64(rs.Total)
			p.NegativePct = float64(rs.Negative) / float64(rs.Total) * 100
		}
		points = append(points, p)
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"points": points, "window": window.String()})
}

// regionsHandler returns the fixed region reference data
func (s *Server) regionsHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, s.resolver.Regions())
}

// summaryHandler returns sentiment counts, optionally for one region
func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	summary, err := s.store.GetSummary(r.Context(), region, s.window(r))
	if err != nil {
		lgr.Printf("[ERROR] failed to get summary: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, summary)
}

// topicsHandler returns trending topics, optionally for one region
func (s *Server) topicsHandler(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	limit := queryInt(r, "limit", 10)
	topics, err := s.store.TopTopics(r.Context(), region, s.window(r), limit)
	if err != nil {
		lgr.Printf("[ERROR] failed to get topics: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, topics)
}

// sourcesHandler returns the per-source item breakdown
func (s *Server) sourcesHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.SourceBreakdown(r.Context(), s.window(r))
	if err != nil {
		lgr.Printf("[ERROR] failed to get source breakdown: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, counts)
}

// languagesHandler returns the per-language item breakdown
func (s *Server) languagesHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.LanguageDistribution(r.Context(), s.window(r))
	if err != nil {
		lgr.Printf("[ERROR] failed to get language distribution: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, counts)
}

// timelineHandler returns hourly sentiment buckets for charts
func (s *Server) timelineHandler(w http.ResponseWriter, r *http.Request) {
	points, err := s.store.Timeline(r.Context(), s.window(r))
	if err != nil {
		lgr.Printf("[ERROR] failed to get timeline: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"timeline": points})
}

// generateReportHandler produces an LLM-backed intelligence report, for
// one region when ?region is given, otherwise overall
func (s *Server) generateReportHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	window := time.Duration(queryInt(r, "hours", 24)) * time.Hour
	region := r.URL.Query().Get("region")

	summary, err := s.store.GetSummary(ctx, region, window)
	if err != nil {
		lgr.Printf("[ERROR] failed to get summary for report: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	if region != "" {
		data := fmt.Sprintf("Region: %s\nTotal mentions: %d\nPositive: %d, Negative: %d, Neutral: %d\nAverage confidence: %.2f",
			region, summary.Total, summary.Positive, summary.Negative, summary.Neutral, summary.AvgConfidence)
		report, err := s.reporter.RegionReport(ctx, region, data)
		if err != nil {
			lgr.Printf("[ERROR] region report failed for %s: %v", region, err)
			renderError(w, r, err, http.StatusInternalServerError)
			return
		}
		renderJSON(w, r, http.StatusOK, map[string]interface{}{
			"region":    region,
			"sentiment": summary,
			"report":    report,
		})
		return
	}

	topics, err := s.store.TopTopics(ctx, "", window, 10)
	if err != nil {
		lgr.Printf("[ERROR] failed to get topics for report: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	regions, err := s.store.GetByRegion(ctx, window)
	if err != nil {
		lgr.Printf("[ERROR] failed to get regions for report: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall: %d mentions, %d positive, %d negative, %d neutral\n",
		summary.Total, summary.Positive, summary.Negative, summary.Neutral)
	if len(topics) > 0 {
		sb.WriteString("Top topics:")
		for _, tc := range topics {
			fmt.Fprintf(&sb, " %s(%d)", tc.Topic, tc.Count)
		}
		sb.WriteString("\n")
	}
	for _, rs := range regions {
		fmt.Fprintf(&sb, "%s: %d mentions, %d negative\n", rs.Region, rs.Total, rs.Negative)
	}

	report, err := s.reporter.SummarizeSentiments(ctx, sb.String())
	if err != nil {
		lgr.Printf("[ERROR] overall report failed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"overall_sentiment": summary,
		"top_topics":        topics,
		"regions":           regions,
		"report":            report,
	})
}

// recentHandler returns the latest analyzed records
func (s *Server) recentHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	records, err := s.store.GetRecentSentiments(r.Context(), limit)
	if err != nil {
		lgr.Printf("[ERROR] failed to get recent sentiments: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, records)
}

// recentAlertsHandler returns the latest triggered alerts
func (s *Server) recentAlertsHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	alerts, err := s.store.GetRecentAlerts(r.Context(), limit)
	if err != nil {
		lgr.Printf("[ERROR] failed to get recent alerts: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, alerts)
}

// checkAlertsHandler runs spike detection on demand
func (s *Server) checkAlertsHandler(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.pipeline.RunSpikeCheck(r.Context())
	if err != nil {
		lgr.Printf("[ERROR] on-demand spike check failed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"triggered": len(alerts), "alerts": alerts})
}

// testAlertHandler sends a test notification to the configured sinks
func (s *Server) testAlertHandler(w http.ResponseWriter, r *http.Request) {
	if !s.notifier.Enabled() {
		renderError(w, r, fmt.Errorf("no notification sinks configured"), http.StatusServiceUnavailable)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]bool{"sent": s.notifier.SendTest()})
}

// acknowledgeAlertHandler marks an alert as seen by an operator
func (s *Server) acknowledgeAlertHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderError(w, r, fmt.Errorf("invalid alert ID"), http.StatusBadRequest)
		return
	}

	if err := s.store.AcknowledgeAlert(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			renderError(w, r, err, http.StatusNotFound)
			return
		}
		lgr.Printf("[ERROR] failed to acknowledge alert %d: %v", id, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"acknowledged": id})
}

// clearDataHandler wipes all stored items, sentiments and alerts
func (s *Server) clearDataHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAll(r.Context()); err != nil {
		lgr.Printf("[ERROR] failed to clear data: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]string{"status": "cleared"})
}

// window returns the aggregation window, honoring an ?hours override
func (s *Server) window(r *http.Request) time.Duration {
	if h := queryInt(r, "hours", 0); h > 0 {
		return time.Duration(h) * time.Hour
	}
	return s.config.AnalysisWindow()
}

// queryKeywords parses the comma-separated ?keywords parameter
func queryKeywords(r *http.Request) []string {
	var keywords []string
	for _, k := range strings.Split(r.URL.Query().Get("keywords"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
