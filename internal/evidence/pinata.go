// Package evidence publishes change masks and their metadata to
// content-addressed storage. A publish writes two immutable blobs: the
// mask rendered as a grayscale PNG, then a JSON metadata document that
// embeds the image's content id. Only the metadata content id is returned;
// a failed publish never leaks an orphaned image id to the caller.
package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/andreeap/go-forest-watch/internal/metrics"
	"github.com/andreeap/go-forest-watch/internal/models"
	"github.com/andreeap/go-forest-watch/internal/raster"
)

type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	Timeout   time.Duration
}

type Publisher struct {
	cfg    Config
	client *http.Client
}

func NewPublisher(cfg Config) *Publisher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Publisher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *Publisher) Configured() bool {
	return p.cfg.APIKey != "" && p.cfg.SecretKey != ""
}

// Metadata is the JSON half of an evidence record. ImageCID is filled in
// by Publish once the mask image has been pinned.
type Metadata struct {
	BBox                 models.BoundingBox `json:"bbox"`
	DateBefore           string             `json:"date_before"`
	DateAfter            string             `json:"date_after"`
	PercentDeforestation float64            `json:"percent_deforestation"`
	PercentReforestation float64            `json:"percent_reforestation"`
	Kind                 string             `json:"kind"` // "baseline" or "change"
	ImageCID             string             `json:"image_ipfs_hash,omitempty"`
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// Publish pins the mask image, then the metadata referencing it, and
// returns the metadata content id. Any failure returns absent; the
// operation never partially succeeds from the caller's point of view.
func (p *Publisher) Publish(ctx context.Context, mask *raster.Mask, meta Metadata) (string, bool) {
	if !p.Configured() {
		slog.Warn("pinning credentials missing, skipping evidence upload")
		return "", false
	}

	img, err := maskPNG(mask)
	if err != nil {
		slog.Error("mask encoding failed", "error", err)
		return "", false
	}

	imageCID, ok := p.pinFile(ctx, "change_mask.png", img)
	if !ok {
		metrics.ObservePublishFailure()
		return "", false
	}
	slog.Info("evidence image pinned", "cid", imageCID)

	meta.ImageCID = imageCID
	metaCID, ok := p.pinJSON(ctx, meta)
	if !ok {
		metrics.ObservePublishFailure()
		return "", false
	}
	slog.Info("evidence metadata pinned", "cid", metaCID)

	return metaCID, true
}

func (p *Publisher) pinFile(ctx context.Context, name string, data []byte) (string, bool) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err == nil {
		_, err = fw.Write(data)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		slog.Error("pin upload body assembly failed", "error", err)
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		slog.Error("pin request creation failed", "error", err)
		return "", false
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	p.auth(req)

	return p.send(req)
}

func (p *Publisher) pinJSON(ctx context.Context, v any) (string, bool) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("metadata encoding failed", "error", err)
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		slog.Error("pin request creation failed", "error", err)
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	p.auth(req)

	return p.send(req)
}

func (p *Publisher) auth(req *http.Request) {
	req.Header.Set("pinata_api_key", p.cfg.APIKey)
	req.Header.Set("pinata_secret_api_key", p.cfg.SecretKey)
}

func (p *Publisher) send(req *http.Request) (string, bool) {
	resp, err := p.client.Do(req)
	if err != nil {
		slog.Warn("pin upload failed", "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("pin upload returned non-OK", "status", resp.Status)
		return "", false
	}

	var pin pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pin); err != nil {
		slog.Warn("pin response decoding failed", "error", err)
		return "", false
	}
	if pin.IpfsHash == "" {
		slog.Warn("pin response missing content id")
		return "", false
	}
	return pin.IpfsHash, true
}
