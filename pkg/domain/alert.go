package domain

import "time"

// Severity classifies how far past the threshold a spike landed
type Severity string

// alert severities
const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Alert is one triggered notification event produced by the spike detector
type Alert struct {
	ID             int64
	Region         string
	Issue          string // best-effort top topic
	Sentiment      Sentiment
	Percentage     float64
	ChangeEstimate float64
	Severity       Severity
	TotalMentions  int
	TriggeredAt    time.Time
	Acknowledged   bool
}

// Region is fixed reference data used as the analytic grouping key
type Region struct {
	Name               string  `json:"name"`
	AdministrativeArea string  `json:"administrative_area"`
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
}
