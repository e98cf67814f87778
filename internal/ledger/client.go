// Package ledger reads and appends immutable monitoring events through a
// ledger gateway. Events carry fixed-point microdegree coordinates and a
// scaled NDVI change magnitude, matching the on-ledger integer schema.
// Appends require a signing key; without one, writes degrade to ErrNoSigner
// instead of failing the run.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// ErrNoSigner marks a skipped write: the client has no signing key, so the
// event cannot be notarized. Callers treat this as degradation, not failure.
var ErrNoSigner = errors.New("ledger: signing key not configured")

type Config struct {
	GatewayURL      string
	SigningKey      string
	ReporterAddress string
	Timeout         time.Duration
}

type Client struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second // submission blocks until inclusion
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

// CanWrite reports whether the client holds a signing key.
func (c *Client) CanWrite() bool { return c.cfg.SigningKey != "" }

// Event mirrors one on-ledger record. Events are append-only; the ledger
// assigns monotonically increasing ids.
type Event struct {
	ID               uint64 `json:"eventId"`
	EvidenceCID      string `json:"evidenceCid"`
	LatitudeE6       int64  `json:"latE6"`
	LongitudeE6      int64  `json:"lonE6"`
	Timestamp        int64  `json:"timestamp"`
	NDVIChangeScaled uint64 `json:"ndviChangeScaled"`
	Reporter         string `json:"reporter"`
}

// ToMicrodegrees converts degrees to the fixed-point on-ledger encoding,
// reversible to roughly 0.11 m of precision.
func ToMicrodegrees(deg float64) int64 {
	return int64(math.Round(deg * 1e6))
}

func FromMicrodegrees(e6 int64) float64 {
	return float64(e6) / 1e6
}

type countResponse struct {
	Count uint64 `json:"count"`
}

// TotalEvents reads the ledger's event counter. A read failure is returned
// as an error rather than zero: zero is a legitimate count, and conflating
// the two would let a region with real history be re-baselined.
func (c *Client) TotalEvents(ctx context.Context) (uint64, error) {
	var out countResponse
	if err := c.get(ctx, "/ledger/events/count", &out); err != nil {
		return 0, fmt.Errorf("reading event count: %w", err)
	}
	return out.Count, nil
}

// EventAt reads the event stored at index i.
func (c *Client) EventAt(ctx context.Context, i uint64) (*Event, error) {
	var ev Event
	if err := c.get(ctx, fmt.Sprintf("/ledger/events/%d", i), &ev); err != nil {
		return nil, fmt.Errorf("reading event %d: %w", i, err)
	}
	return &ev, nil
}

// EventsNear scans every event on the ledger and keeps those within tolDeg
// of the query point on both axes (a box filter, not a radius). Individual
// event reads that fail are skipped with a warning; only the initial count
// read is fatal.
func (c *Client) EventsNear(ctx context.Context, lat, lon, tolDeg float64) ([]Event, error) {
	total, err := c.TotalEvents(ctx)
	if err != nil {
		return nil, err
	}

	var near []Event
	for i := uint64(0); i < total; i++ {
		ev, err := c.EventAt(ctx, i)
		if err != nil {
			slog.Warn("skipping unreadable ledger event", "index", i, "error", err)
			continue
		}
		evLat := FromMicrodegrees(ev.LatitudeE6)
		evLon := FromMicrodegrees(ev.LongitudeE6)
		if math.Abs(evLat-lat) <= tolDeg && math.Abs(evLon-lon) <= tolDeg {
			near = append(near, *ev)
		}
	}
	return near, nil
}

// RegisterBaseline appends a zero-magnitude event establishing that the
// area now has ledger history.
func (c *Client) RegisterBaseline(ctx context.Context, evidenceCID string, lat, lon float64) (*Event, error) {
	return c.logEvent(ctx, evidenceCID, lat, lon, 0)
}

// AppendEvent appends a change event. The percentage is stored as
// trunc(percent*100) per the ledger's integer schema.
func (c *Client) AppendEvent(ctx context.Context, evidenceCID string, lat, lon, percentChanged float64) (*Event, error) {
	return c.logEvent(ctx, evidenceCID, lat, lon, uint64(percentChanged*100))
}

func (c *Client) logEvent(ctx context.Context, evidenceCID string, lat, lon float64, ndviScaled uint64) (*Event, error) {
	if !c.CanWrite() {
		return nil, ErrNoSigner
	}

	ev := Event{
		EvidenceCID:      evidenceCID,
		LatitudeE6:       ToMicrodegrees(lat),
		LongitudeE6:      ToMicrodegrees(lon),
		Timestamp:        c.now().Unix(),
		NDVIChangeScaled: ndviScaled,
		Reporter:         c.cfg.ReporterAddress,
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL+"/ledger/events", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.SigningKey)

	// Blocks until the gateway confirms inclusion.
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("event submission returned %s", resp.Status)
	}

	var confirmed Event
	if err := json.NewDecoder(resp.Body).Decode(&confirmed); err != nil {
		return nil, fmt.Errorf("decoding confirmation: %w", err)
	}
	slog.Info("ledger event confirmed", "event_id", confirmed.ID, "cid", confirmed.EvidenceCID)
	return &confirmed, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.GatewayURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
