// Package server exposes the JSON API over the sentiment pipeline:
// on-demand runs, map aggregates, dashboards and alert management.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/regionpulse/pkg/domain"
	"github.com/umputun/regionpulse/pkg/geo"
	"github.com/umputun/regionpulse/pkg/scheduler"
	"github.com/umputun/regionpulse/pkg/scraper"
)

// Server represents HTTP server instance
type Server struct {
	config   ConfigProvider
	store    Store
	pipeline Pipeline
	resolver *geo.Resolver
	notifier Notifier
	reporter Reporter
	version  string
	debug    bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Store is the persistence surface for read endpoints and data admin.
type Store interface {
	GetSummary(ctx context.Context, region string, window time.Duration) (domain.SentimentSummary, error)
	GetByRegion(ctx context.Context, window time.Duration) ([]domain.RegionSentiment, error)
	TopTopics(ctx context.Context, region string, window time.Duration, limit int) ([]domain.TopicCount, error)
	SourceBreakdown(ctx context.Context, window time.Duration) (map[string]int, error)
	LanguageDistribution(ctx context.Context, window time.Duration) (map[string]int, error)
	Timeline(ctx context.Context, window time.Duration) ([]domain.TimelinePoint, error)
	GetRecentSentiments(ctx context.Context, limit int) ([]domain.SentimentRecord, error)
	GetRecentAlerts(ctx context.Context, limit int) ([]domain.Alert, error)
	AcknowledgeAlert(ctx context.Context, id int64) error
	Stats(ctx context.Context) (map[string]int, error)
	ClearAll(ctx context.Context) error
}

// Pipeline triggers on-demand runs.
type Pipeline interface {
	RunPipeline(ctx context.Context, keywords []string) (scheduler.RunReport, error)
	RunSpikeCheck(ctx context.Context) ([]domain.Alert, error)
	ScrapeSingleSource(ctx context.Context, source domain.Source, keywords []string) (scraper.Result, error)
}

// Notifier sends operator-facing test messages.
type Notifier interface {
	SendTest() bool
	Enabled() bool
}

// Reporter generates LLM-backed intelligence reports.
type Reporter interface {
	SummarizeSentiments(ctx context.Context, data string) (string, error)
	RegionReport(ctx context.Context, region, data string) (string, error)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
	AnalysisWindow() time.Duration
	ScrapeKeywords() []string
}

// New initializes a new server instance
func New(cfg ConfigProvider, store Store, pipeline Pipeline, resolver *geo.Resolver,
	notifier Notifier, reporter Reporter, version string, debug bool) *Server {
	s := &Server{
		config:   cfg,
		store:    store,
		pipeline: pipeline,
		resolver: resolver,
		notifier: notifier,
		reporter: reporter,
		version:  version,
		debug:    debug,
		router:   routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	lgr.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("regionpulse", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /scrape-and-analyze", s.scrapeAndAnalyzeHandler)
		r.HandleFunc("GET /scrape-source", s.scrapeSourceHandler)
		r.HandleFunc("GET /generate-report", s.generateReportHandler)

		r.HandleFunc("GET /map/heatmap", s.heatmapHandler)
		r.HandleFunc("GET /map/regions", s.regionsHandler)

		r.HandleFunc("GET /dashboard/summary", s.summaryHandler)
		r.HandleFunc("GET /dashboard/timeline", s.timelineHandler)
		r.HandleFunc("GET /dashboard/topics", s.topicsHandler)
		r.HandleFunc("GET /dashboard/sources", s.sourcesHandler)
		r.HandleFunc("GET /dashboard/languages", s.languagesHandler)
		r.HandleFunc("GET /dashboard/recent", s.recentHandler)

		r.HandleFunc("GET /alerts/recent", s.recentAlertsHandler)
		r.HandleFunc("POST /alerts/check", s.checkAlertsHandler)
		r.HandleFunc("POST /alerts/test", s.testAlertHandler)
		r.HandleFunc("POST /alerts/{id}/acknowledge", s.acknowledgeAlertHandler)

		r.HandleFunc("DELETE /data", s.clearDataHandler)
	})
}
