package geo

import (
	"strings"

	"github.com/umputun/regionpulse/pkg/domain"
)

// keywordRule maps a lowercase keyword or phrase to a region name.
// Rules are evaluated in declaration order and the first match wins,
// so overlapping keywords resolve by priority, not specificity.
// Do not replace the slice with a map.
type keywordRule struct {
	keyword string
	region  string
}

// Resolver maps free text to one of a fixed set of named regions
type Resolver struct {
	rules           []keywordRule
	genericNational []string
	defaultRegion   string
	regions         []domain.Region
}

// NewResolver creates a resolver with the built-in keyword table
func NewResolver() *Resolver {
	return &Resolver{
		rules:           keywordTable,
		genericNational: genericNationalKeywords,
		defaultRegion:   "New Delhi",
		regions:         regionTable,
	}
}

// Resolve scans text plus the location hint against the keyword table in
// declaration order and returns the first matching region. The generic
// national set is checked only when no specific keyword matched and
// resolves to the capital-region default. No match returns "unknown".
func (r *Resolver) Resolve(text, locationHint string) string {
	if text == "" && locationHint == "" {
		return domain.UnknownRegion
	}

	combined := strings.ToLower(text + " " + locationHint)

	for _, rule := range r.rules {
		if strings.Contains(combined, rule.keyword) {
			return rule.region
		}
	}

	for _, word := range r.genericNational {
		if strings.Contains(combined, word) {
			return r.defaultRegion
		}
	}

	return domain.UnknownRegion
}

// ResolveBatch annotates each record's Region field in place, one item at
// a time, order preserved
func (r *Resolver) ResolveBatch(records []domain.SentimentRecord) {
	for i := range records {
		records[i].Region = r.Resolve(records[i].Text, "")
	}
}

// DefaultRegion returns the capital-region default used for generic
// national keywords
func (r *Resolver) DefaultRegion() string { return r.defaultRegion }

// Regions returns the fixed reference table
func (r *Resolver) Regions() []domain.Region { return r.regions }

// RegionInfo looks up reference data by name, case-insensitive
func (r *Resolver) RegionInfo(name string) (domain.Region, bool) {
	for _, reg := range r.regions {
		if strings.EqualFold(reg.Name, name) {
			return reg, true
		}
	}
	return domain.Region{}, false
}

// Coordinates returns the per-region coordinate lookup used by the heatmap
func (r *Resolver) Coordinates() map[string]domain.Region {
	out := make(map[string]domain.Region, len(r.regions))
	for _, reg := range r.regions {
		out[reg.Name] = reg
	}
	return out
}
