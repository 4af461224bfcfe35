package geo

import (
	"hash/fnv"

	"github.com/umputun/regionpulse/pkg/domain"
)

// SubRegion is a finer-grained ward inside a region
type SubRegion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Area string `json:"area"`
}

// subRegionTable holds the ward lists for regions where ward-level data
// exists. Regions without entries assign "unknown".
var subRegionTable = map[string][]SubRegion{
	"Varanasi": {
		{ID: "VNS-001", Name: "Dashashwamedh Ward", Area: "Dashashwamedh Ghat"},
		{ID: "VNS-002", Name: "Assi Ward", Area: "Assi Ghat"},
		{ID: "VNS-003", Name: "Sigra Ward", Area: "Sigra"},
		{ID: "VNS-004", Name: "Lanka Ward", Area: "Lanka BHU"},
		{ID: "VNS-005", Name: "Cantt Ward", Area: "Cantonment"},
	},
	"New Delhi": {
		{ID: "DLH-001", Name: "Connaught Place", Area: "CP"},
		{ID: "DLH-002", Name: "Karol Bagh", Area: "Karol Bagh"},
		{ID: "DLH-003", Name: "Chandni Chowk", Area: "Old Delhi"},
		{ID: "DLH-004", Name: "Sarojini Nagar", Area: "South Delhi"},
		{ID: "DLH-005", Name: "Lajpat Nagar", Area: "South East"},
	},
	"Mumbai North": {
		{ID: "MUM-001", Name: "Borivali", Area: "Borivali West"},
		{ID: "MUM-002", Name: "Kandivali", Area: "Kandivali East"},
		{ID: "MUM-003", Name: "Malad", Area: "Malad West"},
		{ID: "MUM-004", Name: "Goregaon", Area: "Goregaon East"},
		{ID: "MUM-005", Name: "Dahisar", Area: "Dahisar"},
	},
}

// AssignSubRegion picks a ward inside a resolved region. The pick is a
// stable hash of the text so repeated runs assign the same ward; regions
// without ward data get "unknown".
func AssignSubRegion(region, text string) string {
	wards, ok := subRegionTable[region]
	if !ok || len(wards) == 0 {
		return domain.UnknownRegion
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return wards[int(h.Sum32())%len(wards)].ID
}

// SubRegions returns the ward list for a region, nil when none exists
func SubRegions(region string) []SubRegion {
	return subRegionTable[region]
}
