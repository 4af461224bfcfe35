// Package analytics runs scraped items through the enrichment pipeline:
// sentiment classification, language detection, optional translation,
// topic extraction and region resolution. Every stage degrades
// per item, one malformed text never fails a batch.
package analytics

import (
	"context"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/regionpulse/pkg/config"
	"github.com/umputun/regionpulse/pkg/domain"
	"github.com/umputun/regionpulse/pkg/geo"
	"github.com/umputun/regionpulse/pkg/nlp"
)

// Classifier labels a batch of texts with sentiment.
type Classifier interface {
	ClassifyBatch(ctx context.Context, texts []string) ([]nlp.SentimentResult, error)
}

// Translator detects languages and translates into the working language.
type Translator interface {
	DetectLanguage(text string) string
	Translate(ctx context.Context, text string) (string, error)
}

// TopicExtractor pulls the dominant topics out of one text.
type TopicExtractor interface {
	Extract(ctx context.Context, text string, topN int) []string
}

// RawStore is the persistence surface for scraped items.
type RawStore interface {
	CreateItems(ctx context.Context, items []domain.RawItem) (int, error)
	GetUnprocessed(ctx context.Context, limit int) ([]domain.RawItem, error)
	MarkProcessed(ctx context.Context, ids []int64) error
}

// SentimentStore persists analyzed facts.
type SentimentStore interface {
	CreateRecord(ctx context.Context, rec *domain.SentimentRecord) error
}

// Processor is the enrichment pipeline.
type Processor struct {
	classifier Classifier
	translator Translator
	topics     TopicExtractor
	resolver   *geo.Resolver
	raw        RawStore
	sentiments SentimentStore
	cfg        config.AnalysisConfig
}

// NewProcessor creates a processor with the given stages and stores.
func NewProcessor(classifier Classifier, translator Translator, topics TopicExtractor,
	resolver *geo.Resolver, raw RawStore, sentiments SentimentStore, cfg config.AnalysisConfig) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.TopTopics <= 0 {
		cfg.TopTopics = 3
	}
	return &Processor{
		classifier: classifier,
		translator: translator,
		topics:     topics,
		resolver:   resolver,
		raw:        raw,
		sentiments: sentiments,
		cfg:        cfg,
	}
}

// Result summarizes one pipeline run.
type Result struct {
	Saved     int            `json:"saved"`     // new raw items persisted
	Processed int            `json:"processed"` // items analyzed this run
	Regions   map[string]int `json:"regions"`   // analyzed items per resolved region
	Coverage  float64        `json:"coverage"`  // share of items that mapped to a known region
}

// Process persists new raw items and analyzes everything still
// unprocessed, including leftovers from earlier failed runs.
func (p *Processor) Process(ctx context.Context, items []domain.RawItem) (Result, error) {
	saved := 0
	if len(items) > 0 {
		var err error
		saved, err = p.raw.CreateItems(ctx, items)
		if err != nil {
			return Result{}, fmt.Errorf("save raw items: %w", err)
		}
	}

	res := Result{Saved: saved, Regions: map[string]int{}}
	for {
		batch, err := p.raw.GetUnprocessed(ctx, p.cfg.BatchSize)
		if err != nil {
			return res, fmt.Errorf("load unprocessed items: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		marked, err := p.processBatch(ctx, batch, &res)
		if err != nil {
			return res, err
		}
		if marked == 0 {
			// nothing in the batch could be persisted, stop instead of
			// refetching the same items forever
			log.Printf("[WARN] no progress on batch of %d, leaving items for the next run", len(batch))
			break
		}
	}

	if res.Processed > 0 {
		mapped := res.Processed - res.Regions[domain.UnknownRegion]
		res.Coverage = float64(mapped) / float64(res.Processed)
	}
	log.Printf("[INFO] analysis run completed, %d saved, %d processed, %.0f%% region coverage",
		res.Saved, res.Processed, res.Coverage*100)
	return res, nil
}

func (p *Processor) processBatch(ctx context.Context, batch []domain.RawItem, res *Result) (int, error) {
	texts := make([]string, len(batch))
	for i, it := range batch {
		texts[i] = it.Text
	}

	results, err := p.classifier.ClassifyBatch(ctx, texts)
	if err != nil {
		// classifier outage degrades the whole batch to neutral
		log.Printf("[WARN] classification failed for batch of %d: %v", len(batch), err)
		results = make([]nlp.SentimentResult, len(batch))
		for i := range results {
			results[i] = nlp.SentimentResult{Sentiment: domain.SentimentNeutral}
		}
	}

	ids := make([]int64, 0, len(batch))
	for i, item := range batch {
		rec := p.analyzeItem(ctx, &item, results[i])
		if err := p.sentiments.CreateRecord(ctx, rec); err != nil {
			log.Printf("[WARN] failed to save sentiment for item %d: %v", item.ID, err)
			continue
		}
		ids = append(ids, item.ID)
		res.Processed++
		res.Regions[rec.Region]++
	}

	if len(ids) > 0 {
		if err := p.raw.MarkProcessed(ctx, ids); err != nil {
			return len(ids), fmt.Errorf("mark items processed: %w", err)
		}
	}
	return len(ids), nil
}

// analyzeItem runs the per-item stages. Stage failures are absorbed:
// detection falls back to "unknown", translation keeps the original
// text, topics come back empty.
func (p *Processor) analyzeItem(ctx context.Context, item *domain.RawItem, sr nlp.SentimentResult) *domain.SentimentRecord {
	lang := item.Language
	if lang == "" || lang == "unknown" {
		lang = p.translator.DetectLanguage(item.Text)
	}

	workingText := item.Text
	if p.cfg.Translate && lang != p.cfg.WorkingLanguage && lang != "unknown" {
		translated, err := p.translator.Translate(ctx, item.Text)
		if err != nil {
			log.Printf("[DEBUG] translation failed for item %d, keeping original: %v", item.ID, err)
		} else if translated != "" {
			workingText = translated
		}
	}

	topics := p.topics.Extract(ctx, workingText, p.cfg.TopTopics)

	region := p.resolver.Resolve(item.Text+" "+item.Title, item.Location)
	subRegion := domain.UnknownRegion
	if region != domain.UnknownRegion {
		subRegion = geo.AssignSubRegion(region, item.Text)
	}

	return &domain.SentimentRecord{
		Text:       item.Text,
		Source:     item.Source,
		Sentiment:  sr.Sentiment,
		Confidence: sr.Confidence,
		Scores:     sr.Scores,
		Language:   lang,
		Topics:     topics,
		Entities:   nil,
		Region:     region,
		SubRegion:  subRegion,
		AnalyzedAt: time.Now(),
	}
}
