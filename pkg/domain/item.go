package domain

import "time"

// Source identifies the origin of a scraped item
type Source string

// known item origins
const (
	SourceForum     Source = "forum"
	SourceNews      Source = "news"
	SourceVideo     Source = "video"
	SourceMicroblog Source = "microblog"
)

// RawItem represents one scraped unit before analysis
type RawItem struct {
	ID        int64
	Source    Source
	Text      string
	Title     string
	Author    string
	URL       string
	Location  string // free-text location hint, may be empty
	Language  string // "unknown" until detected
	Metadata  map[string]string
	ScrapedAt time.Time
	Processed bool
}

// DedupKey returns the identity used for deduplication. URL-bearing
// origins dedup by URL; video comments have no stable per-comment URL,
// so the video URL plus author forms the identity; anything else falls
// back to the text itself.
func (i *RawItem) DedupKey() string {
	if i.Source == SourceVideo {
		return i.URL + "|" + i.Author
	}
	if i.URL != "" {
		return i.URL
	}
	return i.Text
}
