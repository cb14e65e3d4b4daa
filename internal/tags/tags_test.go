package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_KnownTypes(t *testing.T) {
	tests := []struct {
		locationType string
		wantKey      string
		wantValue    string
	}{
		{"place_of_worship", "amenity", "place_of_worship"},
		{"police", "amenity", "police"},
		{"park", "leisure", "park"},
		{"school", "amenity", "school"},
		{"hospital", "amenity", "hospital"},
		{"restaurant", "amenity", "restaurant"},
	}
	for _, tt := range tests {
		key, value := Resolve(tt.locationType)
		assert.Equal(t, tt.wantKey, key, tt.locationType)
		assert.Equal(t, tt.wantValue, value, tt.locationType)
	}
}

func TestResolve_UnknownTypeFallsThrough(t *testing.T) {
	key, value := Resolve("unknown_type")
	assert.Equal(t, "unknown_type", key)
	assert.Equal(t, "unknown_type", value)
}

func TestKnown_SortedAndComplete(t *testing.T) {
	known := Known()
	assert.Len(t, known, 6)
	assert.Contains(t, known, "park")
	assert.IsIncreasing(t, known)
}
