// Package analyze summarizes cached result files: element totals, breakdowns
// by element type or tag value, name search and samples.
package analyze

import (
	"sort"
	"strings"

	"github.com/geoatlas/poifetch/internal/model"
)

// Stats is the summary of one result file.
type Stats struct {
	LocationType string         `json:"location_type"`
	Region       string         `json:"region"`
	Total        int            `json:"total"`
	Named        int            `json:"named"`
	ByType       map[string]int `json:"by_type"`
	TagKeys      []string       `json:"tag_keys"`
}

// Summarize computes the headline stats for a result.
func Summarize(result *model.AggregatedResult) *Stats {
	s := &Stats{
		LocationType: result.LocationType,
		Region:       result.Region,
		Total:        len(result.Elements),
		ByType:       make(map[string]int),
	}
	keys := make(map[string]struct{})
	for _, e := range result.Elements {
		s.ByType[e.Type]++
		if e.HasName() {
			s.Named++
		}
		for k := range e.Tags {
			keys[k] = struct{}{}
		}
	}
	s.TagKeys = make([]string, 0, len(keys))
	for k := range keys {
		s.TagKeys = append(s.TagKeys, k)
	}
	sort.Strings(s.TagKeys)
	return s
}

// TagCount is one tag value with its element count.
type TagCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CountByTag groups elements by the value of one tag key. Elements without
// the tag are grouped under "(none)". Results are sorted by descending
// count, then value, so the output is stable.
func CountByTag(result *model.AggregatedResult, key string) []TagCount {
	counts := make(map[string]int)
	for _, e := range result.Elements {
		v, ok := e.Tags[key]
		if !ok || v == "" {
			v = "(none)"
		}
		counts[v]++
	}
	out := make([]TagCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, TagCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// SearchByName returns the elements whose name contains the query,
// case-insensitively, preserving the result's element order.
func SearchByName(result *model.AggregatedResult, query string) []model.Element {
	needle := strings.ToLower(query)
	var matches []model.Element
	for _, e := range result.Elements {
		if !e.HasName() {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name()), needle) {
			matches = append(matches, e)
		}
	}
	return matches
}

// Sample returns up to n elements from the front of the result.
func Sample(result *model.AggregatedResult, n int) []model.Element {
	if n <= 0 || len(result.Elements) == 0 {
		return nil
	}
	if n > len(result.Elements) {
		n = len(result.Elements)
	}
	return result.Elements[:n]
}
