// Package model defines the data types shared across the fetch pipeline.
package model

// Element is a single OSM element as returned by the Overpass API.
// Ways and relations omit lat/lon; nodes omit nodes/members.
type Element struct {
	Type    string            `json:"type"`
	ID      int64             `json:"id"`
	Lat     float64           `json:"lat,omitempty"`
	Lon     float64           `json:"lon,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
	Nodes   []int64           `json:"nodes,omitempty"`
	Members []Member          `json:"members,omitempty"`
}

// Member is a relation member reference.
type Member struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref"`
	Role string `json:"role"`
}

// ElementKey identifies an element across subarea queries. Overpass IDs are
// unique per element type only, so the type is part of the key.
type ElementKey struct {
	Type string
	ID   int64
}

// Key returns the identity key of the element.
func (e Element) Key() ElementKey {
	return ElementKey{Type: e.Type, ID: e.ID}
}

// Name returns the element's name tag, or "" if untagged.
func (e Element) Name() string {
	return e.Tags["name"]
}

// HasName reports whether the element carries a non-empty name tag.
func (e Element) HasName() bool {
	return e.Tags["name"] != ""
}
