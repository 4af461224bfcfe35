package domain

import "time"

// Sentiment is one of the three classification labels
type Sentiment string

// sentiment labels
const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// UnknownRegion is the sentinel for text that resolved to no region
const UnknownRegion = "unknown"

// SentimentRecord is one analyzed unit, derived 1:1 from a RawItem but
// stored as an independent denormalized fact
type SentimentRecord struct {
	ID         int64
	Text       string
	Source     Source
	Sentiment  Sentiment
	Confidence float64
	Scores     map[string]float64 // label -> probability, may not sum to 1
	Language   string
	Topics     []string
	Entities   []string
	Region     string // resolved region name or "unknown"
	SubRegion  string // finer-grained tag or "unknown"
	AnalyzedAt time.Time
}

// RegionSentiment aggregates sentiment counts for one region over a window
type RegionSentiment struct {
	Region   string
	Total    int
	Positive int
	Negative int
	Neutral  int
}

// SentimentSummary holds counts over a time window
type SentimentSummary struct {
	Positive      int     `json:"positive"`
	Negative      int     `json:"negative"`
	Neutral       int     `json:"neutral"`
	Total         int     `json:"total"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// TopicCount is one row of the trending-topics aggregation
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// TimelinePoint is one hourly bucket of the sentiment-over-time chart
type TimelinePoint struct {
	Bucket    string    `json:"bucket"` // hour bucket, e.g. 2026-08-31T14:00
	Sentiment Sentiment `json:"sentiment"`
	Count     int       `json:"count"`
}
