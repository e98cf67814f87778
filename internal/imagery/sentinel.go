// Package imagery retrieves co-registered red/near-infrared rasters for a
// bounding box and calendar date from an imagery gateway. Every failure
// mode (missing credentials, transport error, empty or malformed payload)
// surfaces as an absent result, never as an error the caller must handle.
package imagery

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/andreeap/go-forest-watch/internal/models"
	"github.com/andreeap/go-forest-watch/internal/raster"
)

const (
	// Acquisitions with more cloud than this are filtered out upstream.
	maxCloudCoverage = 40

	tileWidth  = 512
	tileHeight = 512
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type Fetcher struct {
	cfg    Config
	client *http.Client
}

func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether gateway credentials are present. An
// unconfigured fetcher returns absent from every Fetch.
func (f *Fetcher) Configured() bool {
	return f.cfg.ClientID != "" && f.cfg.ClientSecret != ""
}

type processRequest struct {
	BBox             [4]float64 `json:"bbox"`
	Date             string     `json:"date"`
	Bands            [2]string  `json:"bands"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	MaxCloudCoverage int        `json:"maxCloudCoverage"`
}

type processResponse struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Red    []float64 `json:"red"`
	NIR    []float64 `json:"nir"`
}

// Fetch requests the red and NIR bands for the full UTC day of date.
// The second return value is false when no usable acquisition exists.
func (f *Fetcher) Fetch(ctx context.Context, box models.BoundingBox, date time.Time) (*raster.BandPair, bool) {
	if !f.Configured() {
		slog.Warn("imagery credentials missing, skipping fetch")
		return nil, false
	}

	day := date.UTC().Format("2006-01-02")
	body, err := json.Marshal(processRequest{
		BBox:             [4]float64{box.MinLon, box.MinLat, box.MaxLon, box.MaxLat},
		Date:             day,
		Bands:            [2]string{"B04", "B08"},
		Width:            tileWidth,
		Height:           tileHeight,
		MaxCloudCoverage: maxCloudCoverage,
	})
	if err != nil {
		slog.Error("imagery request encoding failed", "error", err)
		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.BaseURL+"/api/v1/process", bytes.NewReader(body))
	if err != nil {
		slog.Error("imagery request creation failed", "error", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(f.cfg.ClientID, f.cfg.ClientSecret)

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Warn("imagery request failed", "date", day, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("imagery gateway returned non-OK", "date", day, "status", resp.Status)
		return nil, false
	}

	var data processResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		slog.Warn("imagery response decoding failed", "date", day, "error", err)
		return nil, false
	}

	n := data.Width * data.Height
	if n == 0 || len(data.Red) != n || len(data.NIR) != n {
		slog.Warn("imagery response has inconsistent shape",
			"date", day, "width", data.Width, "height", data.Height,
			"red", len(data.Red), "nir", len(data.NIR))
		return nil, false
	}

	pair, err := raster.NewBandPair(
		mat.NewDense(data.Height, data.Width, data.Red),
		mat.NewDense(data.Height, data.Width, data.NIR),
	)
	if err != nil {
		slog.Warn("imagery bands rejected", "date", day, "error", err)
		return nil, false
	}

	slog.Debug("imagery fetched", "date", day, "rows", data.Height, "cols", data.Width)
	return pair, true
}
