package model

import "time"

// OverpassVersion is the OSM API version stamped into aggregated documents,
// matching what the Overpass API itself reports.
const OverpassVersion = 0.6

// Generator identifies documents written by this tool.
const Generator = "Overpass API"

// SubareaFailure records one subarea query that failed after exhausting
// retries. Subarea is the 1-based index in catalog order.
type SubareaFailure struct {
	Subarea int        `json:"subarea"`
	Bounds  [4]float64 `json:"bounds"`
	Error   string     `json:"error"`
}

// AggregatedResult is the merged element set across all subareas of one
// (location type, region) fetch. Failures are carried alongside the data so
// consumers can decide whether partial results are acceptable.
type AggregatedResult struct {
	Version      float64          `json:"version"`
	Generator    string           `json:"generator"`
	LocationType string           `json:"location_type"`
	Region       string           `json:"region"`
	FetchedAt    time.Time        `json:"fetched_at"`
	Elements     []Element        `json:"elements"`
	Failures     []SubareaFailure `json:"failures,omitempty"`
}

// Partial reports whether any subarea failed during the fetch.
func (r *AggregatedResult) Partial() bool {
	return len(r.Failures) > 0
}

// ElementKeys returns the identity set of the result's elements. Useful for
// order-independent comparisons.
func (r *AggregatedResult) ElementKeys() map[ElementKey]struct{} {
	keys := make(map[ElementKey]struct{}, len(r.Elements))
	for _, e := range r.Elements {
		keys[e.Key()] = struct{}{}
	}
	return keys
}
