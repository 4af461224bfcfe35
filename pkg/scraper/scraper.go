// Package scraper collects short-form text from several independently
// unreliable origins. Each fetcher owns an ordered chain of backend
// strategies and never fails its caller: internal errors reduce the
// result to an empty list and are surfaced via logging only.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/umputun/regionpulse/pkg/domain"
)

// Fetcher is one source of raw items. Fetch must not fail the caller;
// a fetcher with no available backend reports zero items.
type Fetcher interface {
	Source() domain.Source
	Fetch(ctx context.Context, keywords []string) []domain.RawItem
}

// httpGetJSON issues a GET with query params and decodes the JSON body
// into out. Non-200 statuses are errors.
func httpGetJSON(ctx context.Context, client *http.Client, rawURL string, params url.Values, userAgent string, out interface{}) error {
	reqURL := rawURL
	if len(params) > 0 {
		reqURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

// sleep waits for d or until the context is canceled, used for the
// inter-query delay fetchers impose to respect upstream quotas
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
