// Package tags maps logical location types to the OSM tag pair the
// Overpass API filters on.
package tags

import "sort"

// keyByType maps a location type to its OSM tag key. Types absent from the
// table use the type itself as the key.
var keyByType = map[string]string{
	"place_of_worship": "amenity",
	"police":           "amenity",
	"park":             "leisure",
	"school":           "amenity",
	"hospital":         "amenity",
	"restaurant":       "amenity",
}

// valueByType maps a location type to its OSM tag value. The mapped types
// all use the identity value today; the table exists so a future type can
// diverge without changing callers.
var valueByType = map[string]string{
	"place_of_worship": "place_of_worship",
	"police":           "police",
	"park":             "park",
	"school":           "school",
	"hospital":         "hospital",
	"restaurant":       "restaurant",
}

// Resolve returns the (key, value) tag pair for a location type. Unknown
// types resolve to (t, t) rather than failing: the identifier is passed
// through as a raw OSM tag, which lets callers query any tag Overpass
// understands.
func Resolve(locationType string) (key, value string) {
	key, ok := keyByType[locationType]
	if !ok {
		key = locationType
	}
	value, ok = valueByType[locationType]
	if !ok {
		value = locationType
	}
	return key, value
}

// Known returns the location types with an explicit mapping, sorted.
func Known() []string {
	types := make([]string, 0, len(keyByType))
	for t := range keyByType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
