// Package scheduler drives the periodic scrape-and-analyze and spike
// detection cycles.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/regionpulse/pkg/analytics"
	"github.com/umputun/regionpulse/pkg/domain"
	"github.com/umputun/regionpulse/pkg/scraper"
)

// Scraper orchestrates all source fetchers for one run.
type Scraper interface {
	ScrapeAll(ctx context.Context, keywords []string) scraper.Result
	ScrapeSingleSource(ctx context.Context, source domain.Source, keywords []string) (scraper.Result, error)
}

// Processor runs the enrichment pipeline over scraped items.
type Processor interface {
	Process(ctx context.Context, items []domain.RawItem) (analytics.Result, error)
}

// SpikeDetector evaluates the trailing window for alerts.
type SpikeDetector interface {
	CheckForSpikes(ctx context.Context) ([]domain.Alert, error)
}

// Summarizer produces an analyst digest from formatted run data.
type Summarizer interface {
	SummarizeSentiments(ctx context.Context, data string) (string, error)
}

// RunReport aggregates the outcome of one scrape-and-analyze cycle.
type RunReport struct {
	Scraped  int            `json:"scraped"`
	Dropped  int            `json:"dropped"`
	Sources  map[string]int `json:"sources"`
	Analyzed int            `json:"analyzed"`
	Saved    int            `json:"saved"`
	Regions  map[string]int `json:"regions"`
	Mapped   float64        `json:"mapping_percentage"`
	Alerts   int            `json:"alerts_triggered"`
	Summary  string         `json:"ai_summary,omitempty"`
}

// Scheduler manages the periodic pipeline and detection cycles
type Scheduler struct {
	scraper        Scraper
	processor      Processor
	detector       SpikeDetector
	summarizer     Summarizer
	keywords       []string
	scrapeInterval time.Duration
	spikeInterval  time.Duration
	wg             sync.WaitGroup
	cancel         context.CancelFunc
	runMutex       sync.Mutex // one pipeline run at a time, scheduled or on demand
}

// Config holds scheduler configuration
type Config struct {
	Keywords       []string
	ScrapeInterval time.Duration
	SpikeInterval  time.Duration
}

// NewScheduler creates a new scheduler instance. Detector and
// summarizer are optional, nil disables the corresponding step.
func NewScheduler(scr Scraper, proc Processor, det SpikeDetector, sum Summarizer, cfg Config) *Scheduler {
	if cfg.ScrapeInterval == 0 {
		cfg.ScrapeInterval = time.Hour
	}
	if cfg.SpikeInterval == 0 {
		cfg.SpikeInterval = 30 * time.Minute
	}

	return &Scheduler{
		scraper:        scr,
		processor:      proc,
		detector:       det,
		summarizer:     sum,
		keywords:       cfg.Keywords,
		scrapeInterval: cfg.ScrapeInterval,
		spikeInterval:  cfg.SpikeInterval,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.pipelineWorker(ctx)

	if s.detector != nil {
		s.wg.Add(1)
		go s.spikeWorker(ctx)
	}

	lgr.Printf("[INFO] scheduler started with scrape interval %v, spike interval %v",
		s.scrapeInterval, s.spikeInterval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// RunPipeline executes one scrape-and-analyze cycle and reports the
// combined outcome. Empty keywords fall back to the configured set.
// Used by the periodic worker and exposed for on-demand runs from the
// API.
func (s *Scheduler) RunPipeline(ctx context.Context, keywords []string) (RunReport, error) {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()

	if len(keywords) == 0 {
		keywords = s.keywords
	}

	scrapeRes := s.scraper.ScrapeAll(ctx, keywords)
	procRes, err := s.processor.Process(ctx, scrapeRes.Items)
	if err != nil {
		return RunReport{}, err
	}

	report := RunReport{
		Scraped:  scrapeRes.Total,
		Dropped:  scrapeRes.Dropped,
		Sources:  scrapeRes.Counts,
		Analyzed: procRes.Processed,
		Saved:    procRes.Saved,
		Regions:  procRes.Regions,
		Mapped:   procRes.Coverage * 100,
	}

	if s.detector != nil {
		alerts, err := s.detector.CheckForSpikes(ctx)
		if err != nil {
			lgr.Printf("[WARN] spike check after pipeline run failed: %v", err)
		} else {
			report.Alerts = len(alerts)
		}
	}

	if s.summarizer != nil && report.Analyzed > 0 {
		summary, err := s.summarizer.SummarizeSentiments(ctx, formatRunData(report))
		if err != nil {
			lgr.Printf("[WARN] run summary skipped: %v", err)
		} else {
			report.Summary = summary
		}
	}

	return report, nil
}

// formatRunData renders the report as plain text for the summarizer
func formatRunData(r RunReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scraped: %d items, analyzed: %d, saved: %d\n", r.Scraped, r.Analyzed, r.Saved)
	fmt.Fprintf(&sb, "Mapped to a region: %.1f%%\n", r.Mapped)
	fmt.Fprintf(&sb, "Alerts triggered: %d\n", r.Alerts)
	if len(r.Regions) > 0 {
		sb.WriteString("Items per region:\n")
		for region, n := range r.Regions {
			fmt.Fprintf(&sb, "  %s: %d\n", region, n)
		}
	}
	return sb.String()
}

// ScrapeSingleSource scrapes one named source and runs its items
// through the pipeline, used for targeted on-demand runs.
func (s *Scheduler) ScrapeSingleSource(ctx context.Context, source domain.Source, keywords []string) (scraper.Result, error) {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()

	res, err := s.scraper.ScrapeSingleSource(ctx, source, keywords)
	if err != nil {
		return res, err
	}
	if _, err := s.processor.Process(ctx, res.Items); err != nil {
		return res, err
	}
	return res, nil
}

// RunSpikeCheck executes one detection cycle on demand.
func (s *Scheduler) RunSpikeCheck(ctx context.Context) ([]domain.Alert, error) {
	return s.detector.CheckForSpikes(ctx)
}

// pipelineWorker periodically runs the full scrape-and-analyze cycle
func (s *Scheduler) pipelineWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.scrapeInterval)
	defer ticker.Stop()

	// run immediately on start
	s.runPipelineLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runPipelineLogged(ctx)
		}
	}
}

func (s *Scheduler) runPipelineLogged(ctx context.Context) {
	res, err := s.RunPipeline(ctx, nil)
	if err != nil {
		lgr.Printf("[ERROR] pipeline run failed: %v", err)
		return
	}
	lgr.Printf("[INFO] pipeline run done, %d scraped, %d saved, %d analyzed, %d alert(s)",
		res.Scraped, res.Saved, res.Analyzed, res.Alerts)
}

// spikeWorker periodically evaluates the trailing window for alerts
func (s *Scheduler) spikeWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.spikeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			alerts, err := s.detector.CheckForSpikes(ctx)
			if err != nil {
				lgr.Printf("[ERROR] spike check failed: %v", err)
				continue
			}
			if len(alerts) > 0 {
				lgr.Printf("[INFO] spike check triggered %d alert(s)", len(alerts))
			}
		}
	}
}
