package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/regionpulse/pkg/alerts"
	"github.com/umputun/regionpulse/pkg/analytics"
	"github.com/umputun/regionpulse/pkg/config"
	"github.com/umputun/regionpulse/pkg/geo"
	"github.com/umputun/regionpulse/pkg/nlp"
	"github.com/umputun/regionpulse/pkg/notify"
	"github.com/umputun/regionpulse/pkg/repository"
	"github.com/umputun/regionpulse/pkg/scheduler"
	"github.com/umputun/regionpulse/pkg/scraper"
	"github.com/umputun/regionpulse/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"f" long:"config" env:"CONFIG" default:"config.yml" description:"config file"`
	DBFile string `long:"db" env:"DB_FILE" description:"sqlite database file, overrides config"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Printf("failed to load config %s: %v\n", opts.Config, err)
		os.Exit(1)
	}
	setupLog(opts.Debug, cfg.LLM.APIKey, cfg.Scrape.NewsAPIKey, cfg.Scrape.VideoAPIKey)

	log.Printf("[INFO] starting regionpulse version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()
	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, opts Opts) error {
	dsn := cfg.Database.DSN
	if opts.DBFile != "" {
		dsn = "file:" + opts.DBFile + "?cache=shared&mode=rwc&_txlock=immediate"
	}
	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             dsn,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Printf("[WARN] failed to close storage: %v", err)
		}
	}()

	notifier, err := notify.NewService(cfg.Notify)
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}
	notifier.SendStartup(revision)

	resolver := geo.NewResolver()
	processor := analytics.NewProcessor(
		nlp.NewClassifier(cfg.LLM),
		nlp.NewTranslator(cfg.LLM),
		nlp.NewTopicExtractor(cfg.LLM),
		resolver,
		repos.Raw,
		repos.Sentiment,
		cfg.LLM.Analysis,
	)
	detector := alerts.NewDetector(repos.Sentiment, repos.Alert, notifier, cfg.Alerts)
	summarizer := nlp.NewSummarizer(cfg.LLM)

	manager := newScrapeManager(cfg.Schedule.MaxWorkers, cfg.Scrape)
	sched := scheduler.NewScheduler(manager, processor, detector, summarizer, scheduler.Config{
		Keywords:       cfg.Scrape.Keywords,
		ScrapeInterval: cfg.Schedule.ScrapeInterval,
		SpikeInterval:  cfg.Schedule.SpikeInterval,
	})
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.New(cfg, server.NewRepositoryAdapter(repos), sched, resolver, notifier, summarizer, revision, opts.Debug)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// newScrapeManager registers all source fetchers, credential-gated
// ones included so the orchestrator always reports a stable source set
func newScrapeManager(maxWorkers int, cfg config.ScrapeConfig) *scraper.Manager {
	return scraper.NewManager(maxWorkers,
		scraper.NewForumFetcher(cfg),
		scraper.NewNewsFetcher(cfg),
		scraper.NewVideoFetcher(cfg),
		scraper.NewMicroblogFetcher(cfg),
	)
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	for _, s := range secs {
		if s != "" {
			logOpts = append(logOpts, lgr.Secret(s))
		}
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
