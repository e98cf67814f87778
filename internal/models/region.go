package models

// BoundingBox is a WGS84 axis-aligned box: (minLon, minLat, maxLon, maxLat).
type BoundingBox struct {
	MinLon float64 `yaml:"min_lon" json:"min_lon"`
	MinLat float64 `yaml:"min_lat" json:"min_lat"`
	MaxLon float64 `yaml:"max_lon" json:"max_lon"`
	MaxLat float64 `yaml:"max_lat" json:"max_lat"`
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (b BoundingBox) Center() Coordinates {
	return Coordinates{
		Latitude:  (b.MinLat + b.MaxLat) / 2,
		Longitude: (b.MinLon + b.MaxLon) / 2,
	}
}

// Region is one monitored area of interest. Regions are configured
// externally (regions.yaml) and never mutated at runtime.
type Region struct {
	Name string      `yaml:"name" json:"name"`
	BBox BoundingBox `yaml:"bbox" json:"bbox"`
}
