package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:regionpulse.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Schedule struct {
		ScrapeInterval time.Duration `yaml:"scrape_interval" json:"scrape_interval" jsonschema:"default=30m,description=Interval between full scrape-and-analyze runs"`
		SpikeInterval  time.Duration `yaml:"spike_interval" json:"spike_interval" jsonschema:"default=10m,description=Interval between spike detector runs"`
		MaxWorkers     int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Maximum concurrent workers"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Scrape  ScrapeConfig `yaml:"scrape" json:"scrape" jsonschema:"description=Source fetcher configuration"`
	LLM     LLMConfig    `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for sentiment and topic analysis"`
	Alerts  AlertsConfig `yaml:"alerts" json:"alerts" jsonschema:"description=Spike detection configuration"`
	Notify  NotifyConfig `yaml:"notify" json:"notify" jsonschema:"description=Notification sink configuration"`
}

// ScrapeConfig holds per-source fetcher settings. A missing credential
// degrades the one fetcher to a no-op; it never fails the pipeline.
type ScrapeConfig struct {
	Keywords      []string      `yaml:"keywords" json:"keywords" jsonschema:"description=Default search keywords"`
	QueryDelay    time.Duration `yaml:"query_delay" json:"query_delay" jsonschema:"default=1s,description=Minimum delay between sequential queries inside one fetcher"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=15s,description=HTTP timeout per backend request"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=regionpulse/1.0,description=User agent for HTTP requests"`
	PerQueryLimit int           `yaml:"per_query_limit" json:"per_query_limit" jsonschema:"default=50,description=Maximum items requested per query"`

	NewsAPIKey    string `yaml:"news_api_key" json:"news_api_key" jsonschema:"description=NewsAPI credential (optional)"`
	VideoAPIKey   string `yaml:"video_api_key" json:"video_api_key" jsonschema:"description=YouTube Data API credential (optional)"`
	MicroblogURL  string `yaml:"microblog_url" json:"microblog_url" jsonschema:"description=Microblog search endpoint; empty disables the fetcher"`
	ForumBoards   string `yaml:"forum_boards" json:"forum_boards" jsonschema:"description=Comma-separated forum boards to search"`
	MaxVideos     int    `yaml:"max_videos" json:"max_videos" jsonschema:"default=2,description=Videos per keyword for the comments fetcher"`
}

// AnalysisConfig holds pipeline-specific settings
type AnalysisConfig struct {
	BatchSize       int    `yaml:"batch_size" json:"batch_size" jsonschema:"default=32,minimum=1,description=Number of texts per classifier call"`
	WorkingLanguage string `yaml:"working_language" json:"working_language" jsonschema:"default=en,description=Pipeline working language"`
	Translate       bool   `yaml:"translate" json:"translate" jsonschema:"default=false,description=Translate non-working-language text before topic extraction"`
	TopTopics       int    `yaml:"top_topics" json:"top_topics" jsonschema:"default=3,description=Topics extracted per item"`
}

// LLMConfig holds the OpenAI-compatible endpoint used by the sentiment
// classifier, translator and topic extractor
type LLMConfig struct {
	Endpoint    string         `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint"`
	APIKey      string         `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model       string         `yaml:"model" json:"model" jsonschema:"description=Model name (e.g. llama-3.1-8b-instant)"`
	Temperature float64        `yaml:"temperature" json:"temperature" jsonschema:"default=0.2,description=Temperature for response generation"`
	MaxTokens   int            `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=1000,description=Maximum tokens in response"`
	Timeout     time.Duration  `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	Analysis    AnalysisConfig `yaml:"analysis" json:"analysis" jsonschema:"description=Pipeline-specific settings"`
}

// AlertsConfig holds spike detector thresholds
type AlertsConfig struct {
	Window            time.Duration `yaml:"window" json:"window" jsonschema:"default=4h,description=Trailing aggregation window"`
	NegativeThreshold float64       `yaml:"negative_threshold" json:"negative_threshold" jsonschema:"default=60,minimum=0,maximum=100,description=Negative share percentage that triggers an alert"`
	HighThreshold     float64       `yaml:"high_threshold" json:"high_threshold" jsonschema:"default=80,minimum=0,maximum=100,description=Negative share percentage that escalates severity to HIGH"`
	MinSamples        int           `yaml:"min_samples" json:"min_samples" jsonschema:"default=10,minimum=1,description=Minimum mentions before a region is considered"`
}

// NotifyConfig holds notification sink settings. Empty URLs disable the
// sink without affecting the rest of the pipeline.
type NotifyConfig struct {
	URLs    []string      `yaml:"urls" json:"urls" jsonschema:"description=Shoutrrr service URLs (e.g. telegram://token@telegram?chats=id)"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Delivery timeout"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// setDefaults fills zero values with documented defaults
func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:regionpulse.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	if c.Schedule.ScrapeInterval == 0 {
		c.Schedule.ScrapeInterval = 30 * time.Minute
	}
	if c.Schedule.SpikeInterval == 0 {
		c.Schedule.SpikeInterval = 10 * time.Minute
	}
	if c.Schedule.MaxWorkers == 0 {
		c.Schedule.MaxWorkers = 5
	}

	if len(c.Scrape.Keywords) == 0 {
		c.Scrape.Keywords = []string{"government scheme", "development", "economy"}
	}
	if c.Scrape.QueryDelay == 0 {
		c.Scrape.QueryDelay = time.Second
	}
	if c.Scrape.Timeout == 0 {
		c.Scrape.Timeout = 15 * time.Second
	}
	if c.Scrape.UserAgent == "" {
		c.Scrape.UserAgent = "regionpulse/1.0"
	}
	if c.Scrape.PerQueryLimit == 0 {
		c.Scrape.PerQueryLimit = 50
	}
	if c.Scrape.ForumBoards == "" {
		c.Scrape.ForumBoards = "india,IndiaSpeaks,indianpolitics"
	}
	if c.Scrape.MaxVideos == 0 {
		c.Scrape.MaxVideos = 2
	}

	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.2
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 30 * time.Second
	}
	if c.LLM.Analysis.BatchSize == 0 {
		c.LLM.Analysis.BatchSize = 32
	}
	if c.LLM.Analysis.WorkingLanguage == "" {
		c.LLM.Analysis.WorkingLanguage = "en"
	}
	if c.LLM.Analysis.TopTopics == 0 {
		c.LLM.Analysis.TopTopics = 3
	}

	if c.Alerts.Window == 0 {
		c.Alerts.Window = 4 * time.Hour
	}
	if c.Alerts.NegativeThreshold == 0 {
		c.Alerts.NegativeThreshold = 60
	}
	if c.Alerts.HighThreshold == 0 {
		c.Alerts.HighThreshold = 80
	}
	if c.Alerts.MinSamples == 0 {
		c.Alerts.MinSamples = 10
	}

	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 10 * time.Second
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.Analysis.BatchSize < 1 {
		return fmt.Errorf("llm.analysis.batch_size must be at least 1")
	}

	if cfg.Alerts.NegativeThreshold < 0 || cfg.Alerts.NegativeThreshold > 100 {
		return fmt.Errorf("alerts.negative_threshold must be between 0 and 100")
	}
	if cfg.Alerts.HighThreshold < cfg.Alerts.NegativeThreshold {
		return fmt.Errorf("alerts.high_threshold must not be below alerts.negative_threshold")
	}
	if cfg.Alerts.MinSamples < 1 {
		return fmt.Errorf("alerts.min_samples must be at least 1")
	}
	if cfg.Alerts.Window < time.Minute {
		return fmt.Errorf("alerts.window must be at least 1 minute")
	}

	if cfg.Scrape.QueryDelay < 0 {
		return fmt.Errorf("scrape.query_delay must be non-negative")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetScrapeConfig returns source fetcher configuration
func (c *Config) GetScrapeConfig() ScrapeConfig {
	return c.Scrape
}

// GetLLMConfig returns LLM configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}

// GetAlertsConfig returns spike detection configuration
func (c *Config) GetAlertsConfig() AlertsConfig {
	return c.Alerts
}

// AnalysisWindow returns the trailing window used for aggregates
func (c *Config) AnalysisWindow() time.Duration {
	return c.Alerts.Window
}

// ScrapeKeywords returns the configured search keywords
func (c *Config) ScrapeKeywords() []string {
	return c.Scrape.Keywords
}
