package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoundingBox_RejectsInvertedAxes(t *testing.T) {
	_, err := NewBoundingBox(10, 0, 5, 20)
	assert.Error(t, err, "min latitude above max must fail")

	_, err = NewBoundingBox(0, 20, 10, 5)
	assert.Error(t, err, "min longitude above max must fail")

	_, err = NewBoundingBox(5, 5, 5, 10)
	assert.Error(t, err, "zero-height box must fail")

	b, err := NewBoundingBox(55.0, 4.0, 71.0, 32.0)
	require.NoError(t, err)
	assert.Equal(t, [4]float64{55.0, 4.0, 71.0, 32.0}, b.Array())
}

func TestBoundingBoxContains(t *testing.T) {
	outer := mustBox(55.0, 4.0, 71.0, 32.0)
	assert.True(t, outer.Contains(mustBox(55.0, 4.0, 63.0, 18.0)))
	assert.True(t, outer.Contains(outer), "box contains itself")
	assert.False(t, outer.Contains(mustBox(54.0, 4.0, 63.0, 18.0)), "extends south")
	assert.False(t, outer.Contains(mustBox(55.0, 4.0, 63.0, 33.0)), "extends east")
}

func TestBoundingBoxOverlaps(t *testing.T) {
	a := mustBox(55.0, 4.0, 63.0, 18.0)
	b := mustBox(63.0, 4.0, 71.0, 18.0)
	assert.False(t, a.Overlaps(b), "tiles sharing an edge do not overlap")

	c := mustBox(60.0, 10.0, 65.0, 20.0)
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(a))

	far := mustBox(10.0, 100.0, 20.0, 110.0)
	assert.False(t, a.Overlaps(far))
}

func TestBoundingBoxBounds_GeomInterop(t *testing.T) {
	b := mustBox(55.0, 4.0, 71.0, 32.0)
	gb := b.Bounds()
	assert.Equal(t, 4.0, gb.Min(0), "x min is west longitude")
	assert.Equal(t, 55.0, gb.Min(1), "y min is south latitude")
	assert.Equal(t, 32.0, gb.Max(0))
	assert.Equal(t, 71.0, gb.Max(1))
}

func TestCatalogLookup(t *testing.T) {
	c := Builtin()

	r, err := c.Lookup("northern_europe")
	require.NoError(t, err)
	assert.Equal(t, "northern_europe", r.Name)
	assert.Len(t, r.Subareas, 4)

	_, err = c.Lookup("atlantis")
	require.Error(t, err)
	var unknown *UnknownRegionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "atlantis", unknown.Name)
	assert.Contains(t, unknown.Known, "central_europe")
}

func TestCatalogSubareas_OrderStable(t *testing.T) {
	c := Builtin()
	subs, err := c.Subareas("southern_europe")
	require.NoError(t, err)
	require.Len(t, subs, 4)
	assert.Equal(t, mustBox(35.0, -10.0, 40.0, 9.0), subs[0])
	assert.Equal(t, mustBox(40.0, 9.0, 45.0, 28.0), subs[3])
}

func TestCatalogNames(t *testing.T) {
	c := Builtin()
	assert.Equal(t, []string{"central_europe", "northern_europe", "southern_europe"}, c.Names())
}

func TestNewCatalog_Validation(t *testing.T) {
	bounds := mustBox(0, 0, 10, 10)

	_, err := NewCatalog(Region{Name: "empty", Bounds: bounds})
	assert.Error(t, err, "region without subareas must fail")

	_, err = NewCatalog(Region{
		Name:     "escapes",
		Bounds:   bounds,
		Subareas: []BoundingBox{mustBox(0, 0, 11, 10)},
	})
	assert.Error(t, err, "subarea outside bounds must fail")

	_, err = NewCatalog(Region{Bounds: bounds, Subareas: []BoundingBox{bounds}})
	assert.Error(t, err, "empty name must fail")
}

func TestNewCatalog_LaterRegionShadows(t *testing.T) {
	bounds := mustBox(0, 0, 10, 10)
	c, err := NewCatalog(
		Region{Name: "r", Bounds: bounds, Subareas: []BoundingBox{mustBox(0, 0, 5, 10)}},
		Region{Name: "r", Bounds: bounds, Subareas: []BoundingBox{mustBox(0, 0, 10, 10)}},
	)
	require.NoError(t, err)
	subs, err := c.Subareas("r")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, mustBox(0, 0, 10, 10), subs[0])
}

func TestBuiltinRegions_SubareasTileWithoutOverlap(t *testing.T) {
	for _, r := range builtinRegions() {
		assert.False(t, r.HasOverlappingSubareas(), r.Name)
	}
}

func TestHasOverlappingSubareas(t *testing.T) {
	r := Region{
		Name:   "overlapping",
		Bounds: mustBox(0, 0, 10, 10),
		Subareas: []BoundingBox{
			mustBox(0, 0, 6, 10),
			mustBox(4, 0, 10, 10),
		},
	}
	assert.True(t, r.HasOverlappingSubareas())
}
