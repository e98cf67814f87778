package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/andreeap/go-forest-watch/internal/models"
)

type regionsFile struct {
	Regions []models.Region `yaml:"regions"`
}

// LoadRegions reads the monitored-region list from a YAML file.
func LoadRegions(path string) ([]models.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading regions file: %w", err)
	}

	var rf regionsFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing regions file: %w", err)
	}
	if len(rf.Regions) == 0 {
		return nil, fmt.Errorf("regions file %s defines no regions", path)
	}

	for i, r := range rf.Regions {
		if r.Name == "" {
			return nil, fmt.Errorf("region %d has no name", i)
		}
		b := r.BBox
		if b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
			return nil, fmt.Errorf("region %q has a degenerate bounding box", r.Name)
		}
		if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
			return nil, fmt.Errorf("region %q bounding box is outside WGS84 range", r.Name)
		}
	}

	return rf.Regions, nil
}
