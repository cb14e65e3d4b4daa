package area

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// regionFile is the YAML layout for user-supplied regions:
//
//	regions:
//	  - name: iberia
//	    bounds: [36.0, -10.0, 44.0, 4.0]
//	    subareas:
//	      - [36.0, -10.0, 40.0, -3.0]
//	      - [40.0, -10.0, 44.0, -3.0]
//
// Bounds are (south, west, north, east), matching the Overpass bbox order.
type regionFile struct {
	Regions []regionSpec `yaml:"regions"`
}

type regionSpec struct {
	Name     string       `yaml:"name"`
	Bounds   [4]float64   `yaml:"bounds"`
	Subareas [][4]float64 `yaml:"subareas"`
}

// LoadFile parses a YAML region file. Box validation happens here so a bad
// file fails at startup rather than mid-fetch.
func LoadFile(path string) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "area: read region file %s", path)
	}

	var file regionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "area: parse region file %s", path)
	}

	regions := make([]Region, 0, len(file.Regions))
	for _, spec := range file.Regions {
		bounds, err := NewBoundingBox(spec.Bounds[0], spec.Bounds[1], spec.Bounds[2], spec.Bounds[3])
		if err != nil {
			return nil, eris.Wrapf(err, "area: region %q bounds", spec.Name)
		}
		subareas := make([]BoundingBox, 0, len(spec.Subareas))
		for i, s := range spec.Subareas {
			sub, err := NewBoundingBox(s[0], s[1], s[2], s[3])
			if err != nil {
				return nil, eris.Wrapf(err, "area: region %q subarea %d", spec.Name, i+1)
			}
			subareas = append(subareas, sub)
		}
		regions = append(regions, Region{Name: spec.Name, Bounds: bounds, Subareas: subareas})
	}
	return regions, nil
}

// LoadCatalog builds the effective catalog: builtin regions plus, when path
// is non-empty, the regions from the YAML file. File entries shadow builtin
// regions of the same name.
func LoadCatalog(path string) (*Catalog, error) {
	regions := builtinRegions()
	if path != "" {
		extra, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		regions = append(regions, extra...)
	}
	return NewCatalog(regions...)
}
