// Package area holds the static region catalog: named geographic areas,
// each decomposed into subarea bounding boxes small enough to query the
// Overpass API one at a time.
package area

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// BoundingBox is an axis-aligned lat/lon box. Immutable once constructed;
// build one with NewBoundingBox to get the min < max invariant checked.
type BoundingBox struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
}

// NewBoundingBox validates that min < max on both axes.
func NewBoundingBox(minLat, minLon, maxLat, maxLon float64) (BoundingBox, error) {
	b := BoundingBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	if minLat >= maxLat {
		return BoundingBox{}, eris.Errorf("area: invalid box %s: min latitude must be below max", b)
	}
	if minLon >= maxLon {
		return BoundingBox{}, eris.Errorf("area: invalid box %s: min longitude must be below max", b)
	}
	return b, nil
}

// mustBox is for the builtin table, whose constants are known valid.
func mustBox(minLat, minLon, maxLat, maxLon float64) BoundingBox {
	b, err := NewBoundingBox(minLat, minLon, maxLat, maxLon)
	if err != nil {
		panic(err)
	}
	return b
}

// String renders the box in Overpass bbox order: south,west,north,east.
func (b BoundingBox) String() string {
	return fmt.Sprintf("(%g,%g,%g,%g)", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

// Array returns the box in (south, west, north, east) order.
func (b BoundingBox) Array() [4]float64 {
	return [4]float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon}
}

// Contains reports whether o lies entirely within b.
func (b BoundingBox) Contains(o BoundingBox) bool {
	return o.MinLat >= b.MinLat && o.MaxLat <= b.MaxLat &&
		o.MinLon >= b.MinLon && o.MaxLon <= b.MaxLon
}

// Bounds converts the box to a go-geom bounds in XY (lon, lat) order.
func (b BoundingBox) Bounds() *geom.Bounds {
	return geom.NewBounds(geom.XY).SetCoords(
		geom.Coord{b.MinLon, b.MinLat},
		geom.Coord{b.MaxLon, b.MaxLat},
	)
}

// Overlaps reports whether the interiors of b and o intersect. Shared edges
// between tiling subareas do not count as overlap.
func (b BoundingBox) Overlaps(o BoundingBox) bool {
	if !b.Bounds().Overlaps(geom.XY, o.Bounds()) {
		return false
	}
	// go-geom treats touching bounds as overlapping; exclude edge contact.
	return b.MinLat < o.MaxLat && o.MinLat < b.MaxLat &&
		b.MinLon < o.MaxLon && o.MinLon < b.MaxLon
}

// Region is a named area with a fixed decomposition into subareas. Subareas
// are queried independently, in order, to stay within Overpass result-size
// and execution-time limits.
type Region struct {
	Name     string
	Bounds   BoundingBox
	Subareas []BoundingBox
}

// UnknownRegionError is returned when a region name is not in the catalog.
type UnknownRegionError struct {
	Name  string
	Known []string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("area: unknown region %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Catalog is an immutable set of regions, built once at startup.
type Catalog struct {
	regions map[string]Region
	names   []string
}

// NewCatalog validates and indexes the given regions. Each region must have
// at least one subarea and every subarea must lie within the region bounds.
// Later regions override earlier ones with the same name, which lets a
// user-supplied region file shadow builtin entries.
func NewCatalog(regions ...Region) (*Catalog, error) {
	c := &Catalog{regions: make(map[string]Region, len(regions))}
	for _, r := range regions {
		if r.Name == "" {
			return nil, eris.New("area: region with empty name")
		}
		if len(r.Subareas) == 0 {
			return nil, eris.Errorf("area: region %q has no subareas", r.Name)
		}
		for i, sub := range r.Subareas {
			if _, err := NewBoundingBox(sub.MinLat, sub.MinLon, sub.MaxLat, sub.MaxLon); err != nil {
				return nil, eris.Wrapf(err, "area: region %q subarea %d", r.Name, i+1)
			}
			if !r.Bounds.Contains(sub) {
				return nil, eris.Errorf("area: region %q subarea %d %s extends beyond bounds %s",
					r.Name, i+1, sub, r.Bounds)
			}
		}
		c.regions[r.Name] = r
	}

	c.names = make([]string, 0, len(c.regions))
	for name := range c.regions {
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

// Lookup returns the region by name or an *UnknownRegionError.
func (c *Catalog) Lookup(name string) (Region, error) {
	r, ok := c.regions[name]
	if !ok {
		return Region{}, &UnknownRegionError{Name: name, Known: c.names}
	}
	return r, nil
}

// Subareas returns the ordered subarea list for a region.
func (c *Catalog) Subareas(name string) ([]BoundingBox, error) {
	r, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}
	return r.Subareas, nil
}

// Names returns the registered region names, sorted.
func (c *Catalog) Names() []string {
	return c.names
}

// HasOverlappingSubareas reports whether any two subareas of the region
// share interior area. The fetch pipeline uses this to decide whether the
// merged element set needs identity deduplication.
func (r Region) HasOverlappingSubareas() bool {
	for i := range r.Subareas {
		for j := i + 1; j < len(r.Subareas); j++ {
			if r.Subareas[i].Overlaps(r.Subareas[j]) {
				return true
			}
		}
	}
	return false
}
