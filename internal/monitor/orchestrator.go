// Package monitor drives the per-region change-detection pipeline: fetch
// band pairs, compute vegetation indices, classify change, then either
// register a first-time baseline or publish evidence and notarize the
// event. External failures never propagate as errors; every run terminates
// in exactly one Outcome variant.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/andreeap/go-forest-watch/internal/evidence"
	"github.com/andreeap/go-forest-watch/internal/ledger"
	"github.com/andreeap/go-forest-watch/internal/models"
	"github.com/andreeap/go-forest-watch/internal/ndvi"
	"github.com/andreeap/go-forest-watch/internal/raster"
)

// Params are the pipeline's decision constants.
type Params struct {
	// ChangeThreshold is the per-pixel NDVI delta for a pixel to count as
	// changed.
	ChangeThreshold float64
	// SignificancePercent is the minimum changed-area share for a run to
	// report an event. The boundary is inclusive.
	SignificancePercent float64
	// ToleranceDegrees is the box half-width for the prior-history query
	// around the region center.
	ToleranceDegrees float64
}

func DefaultParams() Params {
	return Params{
		ChangeThreshold:     ndvi.DefaultThreshold,
		SignificancePercent: 5.0,
		ToleranceDegrees:    0.01,
	}
}

type ImagerySource interface {
	Fetch(ctx context.Context, box models.BoundingBox, date time.Time) (*raster.BandPair, bool)
}

type EvidenceStore interface {
	Publish(ctx context.Context, mask *raster.Mask, meta evidence.Metadata) (string, bool)
}

type LedgerLog interface {
	EventsNear(ctx context.Context, lat, lon, tolDeg float64) ([]ledger.Event, error)
	RegisterBaseline(ctx context.Context, evidenceCID string, lat, lon float64) (*ledger.Event, error)
	AppendEvent(ctx context.Context, evidenceCID string, lat, lon, percentChanged float64) (*ledger.Event, error)
}

// AlertSink receives best-effort event notifications. Implementations must
// not block the monitoring path on sink failures.
type AlertSink interface {
	Notify(note models.Notification)
}

type Orchestrator struct {
	imagery  ImagerySource
	evidence EvidenceStore
	ledger   LedgerLog
	sink     AlertSink
	params   Params
}

func NewOrchestrator(imagery ImagerySource, evidence EvidenceStore, ledger LedgerLog, sink AlertSink, params Params) *Orchestrator {
	if params.ChangeThreshold == 0 {
		params.ChangeThreshold = ndvi.DefaultThreshold
	}
	if params.SignificancePercent == 0 {
		params.SignificancePercent = 5.0
	}
	if params.ToleranceDegrees == 0 {
		params.ToleranceDegrees = 0.01
	}
	return &Orchestrator{
		imagery:  imagery,
		evidence: evidence,
		ledger:   ledger,
		sink:     sink,
		params:   params,
	}
}

// Run executes one synchronous monitoring pass for the region over the
// dateBefore/dateAfter acquisition pair.
func (o *Orchestrator) Run(ctx context.Context, region models.Region, dateBefore, dateAfter time.Time) Outcome {
	log := slog.With("region", region.Name)

	// FETCHING
	before, ok := o.imagery.Fetch(ctx, region.BBox, dateBefore)
	if !ok {
		log.Warn("run aborted, no usable imagery", "date", dateBefore.Format("2006-01-02"))
		return Aborted{Reason: "insufficient satellite data"}
	}
	after, ok := o.imagery.Fetch(ctx, region.BBox, dateAfter)
	if !ok {
		log.Warn("run aborted, no usable imagery", "date", dateAfter.Format("2006-01-02"))
		return Aborted{Reason: "insufficient satellite data"}
	}

	// COMPUTING -> DETECTING
	change := ndvi.DetectChange(
		ndvi.ComputeIndex(before),
		ndvi.ComputeIndex(after),
		o.params.ChangeThreshold,
	)
	log.Info("change detected",
		"deforestation_pct", change.PercentDeforestation,
		"reforestation_pct", change.PercentReforestation)

	center := region.BBox.Center()
	history, err := o.ledger.EventsNear(ctx, center.Latitude, center.Longitude, o.params.ToleranceDegrees)
	if err != nil {
		// An unreadable ledger is indistinguishable from empty history only
		// if we guess; aborting here avoids re-baselining a region that
		// already has events. The next scheduled run retries.
		log.Error("ledger history unavailable", "error", err)
		return Aborted{Reason: fmt.Sprintf("ledger history unavailable: %v", err)}
	}

	meta := evidence.Metadata{
		BBox:                 region.BBox,
		DateBefore:           dateBefore.Format("2006-01-02"),
		DateAfter:            dateAfter.Format("2006-01-02"),
		PercentDeforestation: change.PercentDeforestation,
		PercentReforestation: change.PercentReforestation,
	}

	if len(history) == 0 {
		return o.registerBaseline(ctx, log, center, change, meta)
	}
	return o.checkThreshold(ctx, log, region, center, change, meta)
}

// registerBaseline establishes first-contact history for the region. The
// first run never reports a change event, whatever the detected
// percentages: with no prior baseline on the ledger there is nothing
// meaningful to compare against.
func (o *Orchestrator) registerBaseline(ctx context.Context, log *slog.Logger, center models.Coordinates, change ndvi.ChangeResult, meta evidence.Metadata) Outcome {
	log.Info("no prior ledger history, registering baseline")

	rows, cols := change.Deforestation.Dims()
	meta.Kind = "baseline"

	out := InitialRegistration{
		PercentDeforestation: change.PercentDeforestation,
		PercentReforestation: change.PercentReforestation,
	}

	cid, ok := o.evidence.Publish(ctx, raster.NewMask(rows, cols), meta)
	if !ok {
		log.Warn("baseline evidence publication failed, ledger registration skipped")
		return out
	}
	out.EvidenceCID = cid

	ev, err := o.ledger.RegisterBaseline(ctx, cid, center.Latitude, center.Longitude)
	switch {
	case errors.Is(err, ledger.ErrNoSigner):
		log.Warn("baseline published but not notarized, no signing key")
	case err != nil:
		log.Error("baseline ledger registration failed", "error", err)
	default:
		out.Event = ev
	}
	return out
}

func (o *Orchestrator) checkThreshold(ctx context.Context, log *slog.Logger, region models.Region, center models.Coordinates, change ndvi.ChangeResult, meta evidence.Metadata) Outcome {
	var (
		kind    models.AlertType
		mask    *raster.Mask
		percent float64
	)
	switch {
	// Deforestation wins when both directions cross significance.
	case change.PercentDeforestation >= o.params.SignificancePercent:
		kind, mask, percent = models.AlertTypeDeforestation, change.Deforestation, change.PercentDeforestation
	case change.PercentReforestation >= o.params.SignificancePercent:
		kind, mask, percent = models.AlertTypeReforestation, change.Reforestation, change.PercentReforestation
	default:
		return Unchanged{
			PercentDeforestation: change.PercentDeforestation,
			PercentReforestation: change.PercentReforestation,
		}
	}

	out := Changed{
		Kind:                 kind,
		PercentDeforestation: change.PercentDeforestation,
		PercentReforestation: change.PercentReforestation,
	}

	// PUBLISHING
	meta.Kind = "change"
	cid, ok := o.evidence.Publish(ctx, mask, meta)
	if !ok {
		// No metadata content id means nothing to notarize or notify.
		log.Warn("evidence publication failed, event not recorded", "kind", kind)
		return out
	}
	out.EvidenceCID = cid

	// LOGGING
	ev, err := o.ledger.AppendEvent(ctx, cid, center.Latitude, center.Longitude, percent)
	switch {
	case errors.Is(err, ledger.ErrNoSigner):
		log.Warn("event published but not notarized, no signing key", "kind", kind)
	case err != nil:
		log.Error("ledger append failed", "kind", kind, "error", err)
	default:
		out.Event = ev
	}

	// NOTIFYING: best-effort, decoupled from ledger success.
	o.sink.Notify(models.Notification{
		ForestName:     region.Name,
		AlertType:      string(kind),
		PercentChanged: percent,
		EvidenceCID:    cid,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})

	return out
}
