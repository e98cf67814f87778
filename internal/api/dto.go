package api

import (
	"strings"
	"time"

	"github.com/andreeap/go-forest-watch/internal/models"
)

type alertDTO struct {
	ID             string  `json:"id"`
	ForestName     string  `json:"forest_name"`
	Type           string  `json:"type"`
	PercentChanged float64 `json:"percent_changed"`
	EvidenceCID    string  `json:"evidence_cid"`
	LedgerEventID  *uint64 `json:"ledger_event_id,omitempty"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	CreatedAt      string  `json:"created_at"`
}

func toAlertDTOs(list []models.Alert) []alertDTO {
	out := make([]alertDTO, 0, len(list))
	for _, a := range list {
		out = append(out, alertDTO{
			ID:             a.ID,
			ForestName:     a.ForestName,
			Type:           strings.ToLower(string(a.Type)),
			PercentChanged: a.PercentChanged,
			EvidenceCID:    a.EvidenceCID,
			LedgerEventID:  a.LedgerEventID,
			Latitude:       a.Latitude,
			Longitude:      a.Longitude,
			CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

type runDTO struct {
	ID                   string  `json:"id"`
	Region               string  `json:"region"`
	DateBefore           string  `json:"date_before"`
	DateAfter            string  `json:"date_after"`
	Status               string  `json:"status"`
	PercentDeforestation float64 `json:"percent_deforestation"`
	PercentReforestation float64 `json:"percent_reforestation"`
	EvidenceCID          string  `json:"evidence_cid,omitempty"`
	LedgerEventID        *uint64 `json:"ledger_event_id,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

func toRunDTOs(runs []models.RunReport) []runDTO {
	out := make([]runDTO, 0, len(runs))
	for _, r := range runs {
		out = append(out, runDTO{
			ID:                   r.ID,
			Region:               r.Region,
			DateBefore:           r.DateBefore,
			DateAfter:            r.DateAfter,
			Status:               r.Status,
			PercentDeforestation: r.PercentDeforestation,
			PercentReforestation: r.PercentReforestation,
			EvidenceCID:          r.EvidenceCID,
			LedgerEventID:        r.LedgerEventID,
			CreatedAt:            r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// GeoJSON output for map dashboards.

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(list []models.Alert) FeatureCollection {
	features := make([]Feature, 0, len(list))

	for _, a := range list {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{a.Longitude, a.Latitude},
			},
			Properties: map[string]any{
				"id":              a.ID,
				"forest_name":     a.ForestName,
				"type":            strings.ToLower(string(a.Type)),
				"percent_changed": a.PercentChanged,
				"evidence_cid":    a.EvidenceCID,
				"created_at":      a.CreatedAt.UTC().Format(time.RFC3339),
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
