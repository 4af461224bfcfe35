package scraper

import (
	"context"
	"fmt"
	"sync"

	log "github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/regionpulse/pkg/domain"
)

// Manager orchestrates all registered fetchers. One failing or empty
// source never affects the others; per-source counts are reported
// before deduplication so operators can see what each origin produced.
type Manager struct {
	fetchers   []Fetcher
	maxWorkers int
}

// NewManager creates a manager over the given fetchers. At most
// maxWorkers fetchers run at the same time.
func NewManager(maxWorkers int, fetchers ...Fetcher) *Manager {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	return &Manager{fetchers: fetchers, maxWorkers: maxWorkers}
}

// Result holds the outcome of one orchestrated run.
type Result struct {
	Items   []domain.RawItem `json:"-"`
	Counts  map[string]int   `json:"counts"` // per-source, before dedup
	Total   int              `json:"total"`  // after dedup
	Dropped int              `json:"dropped"`
}

// ScrapeAll runs every fetcher concurrently, collects their items and
// removes duplicates. Always succeeds; a run where every source came up
// empty is a valid zero-count result.
func (m *Manager) ScrapeAll(ctx context.Context, keywords []string) Result {
	var mu sync.Mutex
	collected := make([]domain.RawItem, 0)
	counts := make(map[string]int, len(m.fetchers))
	for _, f := range m.fetchers {
		counts[string(f.Source())] = 0
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.maxWorkers)
	for _, f := range m.fetchers {
		g.Go(func() error {
			items := m.fetchSafe(gctx, f, keywords)
			mu.Lock()
			counts[string(f.Source())] = len(items)
			collected = append(collected, items...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // fetchers never return errors

	deduped := dedup(collected)
	res := Result{
		Items:   deduped,
		Counts:  counts,
		Total:   len(deduped),
		Dropped: len(collected) - len(deduped),
	}
	log.Printf("[INFO] scrape run completed, %d items (%d duplicates dropped), by source: %v",
		res.Total, res.Dropped, res.Counts)
	return res
}

// ScrapeSingleSource runs only the named fetcher. Unknown source names
// are the one orchestration-level error.
func (m *Manager) ScrapeSingleSource(ctx context.Context, source domain.Source, keywords []string) (Result, error) {
	for _, f := range m.fetchers {
		if f.Source() != source {
			continue
		}
		items := dedup(m.fetchSafe(ctx, f, keywords))
		return Result{
			Items:  items,
			Counts: map[string]int{string(source): len(items)},
			Total:  len(items),
		}, nil
	}
	return Result{}, fmt.Errorf("unknown source %q", source)
}

// fetchSafe isolates fetcher panics so a single broken backend parser
// can't take down the whole run.
func (m *Manager) fetchSafe(ctx context.Context, f Fetcher, keywords []string) (items []domain.RawItem) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] fetcher %s panicked: %v", f.Source(), r)
			items = nil
		}
	}()
	return f.Fetch(ctx, keywords)
}

// dedup removes items with an already-seen identity, preserving the
// first occurrence and the incoming order.
func dedup(items []domain.RawItem) []domain.RawItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.RawItem, 0, len(items))
	for _, it := range items {
		key := it.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
