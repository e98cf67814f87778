package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andreeap/go-forest-watch/internal/alerts"
	"github.com/andreeap/go-forest-watch/internal/metrics"
	"github.com/andreeap/go-forest-watch/internal/models"
)

// Scheduler invokes one orchestration run per region per tick. Regions run
// sequentially: ledger submissions share a single signing account, and
// serializing them avoids transaction nonce collisions.
type Scheduler struct {
	orch     *Orchestrator
	store    alerts.Store
	regions  []models.Region
	interval time.Duration
	lookback int // days between the before and after acquisitions
	wg       sync.WaitGroup
}

func NewScheduler(orch *Orchestrator, store alerts.Store, regions []models.Region, interval time.Duration, lookbackDays int) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if lookbackDays <= 0 {
		lookbackDays = 1
	}
	return &Scheduler{
		orch:     orch,
		store:    store,
		regions:  regions,
		interval: interval,
		lookback: lookbackDays,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	slog.Info("scheduler starting", "regions", len(s.regions), "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial sweep
	s.Sweep(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler shutting down")
			return
		case t := <-ticker.C:
			s.Sweep(ctx, t)
		}
	}
}

// Sweep runs every configured region once, sequentially, for the
// acquisition window ending at asOf.
func (s *Scheduler) Sweep(ctx context.Context, asOf time.Time) {
	for _, region := range s.regions {
		if ctx.Err() != nil {
			return
		}
		s.RunRegion(ctx, region, asOf)
	}
}

// RunRegion executes one run and reports its terminal state to the alert
// sink's durable tables. Store failures are logged, never fatal.
func (s *Scheduler) RunRegion(ctx context.Context, region models.Region, asOf time.Time) models.RunReport {
	dateAfter := asOf.UTC()
	dateBefore := dateAfter.AddDate(0, 0, -s.lookback)

	start := time.Now()
	outcome := s.orch.Run(ctx, region, dateBefore, dateAfter)
	metrics.ObserveRun(time.Since(start), outcome.Status())

	report := ReportFor(region, dateBefore, dateAfter, outcome)
	if report.LedgerEventID != nil {
		metrics.ObserveLedgerEvent()
	}
	if err := s.store.AddRun(ctx, &report); err != nil {
		slog.Error("failed to record run report", "region", region.Name, "error", err)
	}

	if alert, ok := alertFor(region, outcome); ok {
		if err := s.store.AddAlert(ctx, alert); err != nil {
			slog.Error("failed to record alert", "region", region.Name, "error", err)
		}
	}

	slog.Info("run complete", "region", region.Name, "status", report.Status)
	return report
}

func (s *Scheduler) Stop() {
	s.wg.Wait()
}

// ReportFor flattens an outcome into the run-report row the dashboard and
// alert sink consume.
func ReportFor(region models.Region, dateBefore, dateAfter time.Time, outcome Outcome) models.RunReport {
	report := models.RunReport{
		ID:         uuid.NewString(),
		Region:     region.Name,
		DateBefore: dateBefore.Format("2006-01-02"),
		DateAfter:  dateAfter.Format("2006-01-02"),
		Status:     outcome.Status(),
		CreatedAt:  time.Now().UTC(),
	}

	switch o := outcome.(type) {
	case Aborted:
		// nothing computed
	case InitialRegistration:
		report.PercentDeforestation = o.PercentDeforestation
		report.PercentReforestation = o.PercentReforestation
		report.EvidenceCID = o.EvidenceCID
		if o.Event != nil {
			id := o.Event.ID
			report.LedgerEventID = &id
		}
	case Unchanged:
		report.PercentDeforestation = o.PercentDeforestation
		report.PercentReforestation = o.PercentReforestation
	case Changed:
		report.PercentDeforestation = o.PercentDeforestation
		report.PercentReforestation = o.PercentReforestation
		report.EvidenceCID = o.EvidenceCID
		if o.Event != nil {
			id := o.Event.ID
			report.LedgerEventID = &id
		}
	}
	return report
}

// alertFor maps evidence-bearing outcomes to durable alert rows.
func alertFor(region models.Region, outcome Outcome) (*models.Alert, bool) {
	center := region.BBox.Center()

	base := models.Alert{
		ID:         uuid.NewString(),
		ForestName: region.Name,
		Latitude:   center.Latitude,
		Longitude:  center.Longitude,
		CreatedAt:  time.Now().UTC(),
	}

	switch o := outcome.(type) {
	case InitialRegistration:
		if o.EvidenceCID == "" {
			return nil, false
		}
		base.Type = models.AlertTypeBaseline
		base.EvidenceCID = o.EvidenceCID
		if o.Event != nil {
			id := o.Event.ID
			base.LedgerEventID = &id
		}
		return &base, true
	case Changed:
		if o.EvidenceCID == "" {
			return nil, false
		}
		base.Type = o.Kind
		base.EvidenceCID = o.EvidenceCID
		if o.Kind == models.AlertTypeReforestation {
			base.PercentChanged = o.PercentReforestation
		} else {
			base.PercentChanged = o.PercentDeforestation
		}
		if o.Event != nil {
			id := o.Event.ID
			base.LedgerEventID = &id
		}
		return &base, true
	default:
		return nil, false
	}
}
