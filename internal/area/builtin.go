package area

// builtinRegions is the engineering-chosen decomposition of Europe into
// three latitude bands, each split into four quadrants that experience has
// shown stay within Overpass execution limits for common POI queries.
func builtinRegions() []Region {
	return []Region{
		{
			Name:   "northern_europe",
			Bounds: mustBox(55.0, 4.0, 71.0, 32.0),
			Subareas: []BoundingBox{
				mustBox(55.0, 4.0, 63.0, 18.0),
				mustBox(63.0, 4.0, 71.0, 18.0),
				mustBox(55.0, 18.0, 63.0, 32.0),
				mustBox(63.0, 18.0, 71.0, 32.0),
			},
		},
		{
			Name:   "central_europe",
			Bounds: mustBox(45.0, 6.0, 55.0, 24.0),
			Subareas: []BoundingBox{
				mustBox(45.0, 6.0, 50.0, 15.0),
				mustBox(50.0, 6.0, 55.0, 15.0),
				mustBox(45.0, 15.0, 50.0, 24.0),
				mustBox(50.0, 15.0, 55.0, 24.0),
			},
		},
		{
			Name:   "southern_europe",
			Bounds: mustBox(35.0, -10.0, 45.0, 28.0),
			Subareas: []BoundingBox{
				mustBox(35.0, -10.0, 40.0, 9.0),
				mustBox(40.0, -10.0, 45.0, 9.0),
				mustBox(35.0, 9.0, 40.0, 28.0),
				mustBox(40.0, 9.0, 45.0, 28.0),
			},
		},
	}
}

// Builtin returns the catalog of builtin regions.
func Builtin() *Catalog {
	c, err := NewCatalog(builtinRegions()...)
	if err != nil {
		panic(err) // builtin table is validated by tests
	}
	return c
}
