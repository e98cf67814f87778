// monitor-once runs the monitoring pipeline for a single region and date
// pair, prints the resulting report as JSON, and exits. Nothing is written
// to the local database; evidence and ledger writes still happen if the
// relevant credentials are configured.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/andreeap/go-forest-watch/internal/alerts"
	"github.com/andreeap/go-forest-watch/internal/config"
	"github.com/andreeap/go-forest-watch/internal/evidence"
	"github.com/andreeap/go-forest-watch/internal/imagery"
	"github.com/andreeap/go-forest-watch/internal/ledger"
	"github.com/andreeap/go-forest-watch/internal/logging"
	"github.com/andreeap/go-forest-watch/internal/models"
	"github.com/andreeap/go-forest-watch/internal/monitor"
)

type syncSink struct {
	notifier *alerts.Notifier
}

func (s syncSink) Notify(note models.Notification) {
	s.notifier.Notify(context.Background(), note)
}

func main() {
	regionName := flag.String("region", "", "name of the region from regions.yaml")
	dateStr := flag.String("date", "", "after-acquisition date (2006-01-02), defaults to today")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	regions, err := config.LoadRegions(cfg.Monitor.RegionsPath)
	if err != nil {
		logging.Fatalf("Failed to load regions: %v", err)
	}

	var region *models.Region
	for i := range regions {
		if regions[i].Name == *regionName {
			region = &regions[i]
			break
		}
	}
	if region == nil {
		names := make([]string, 0, len(regions))
		for _, r := range regions {
			names = append(names, r.Name)
		}
		logging.Fatalf("Unknown region %q, configured regions: %v", *regionName, names)
	}

	dateAfter := time.Now().UTC()
	if *dateStr != "" {
		dateAfter, err = time.Parse("2006-01-02", *dateStr)
		if err != nil {
			logging.Fatalf("Invalid -date: %v", err)
		}
	}
	dateBefore := dateAfter.AddDate(0, 0, -cfg.Monitor.LookbackDays)

	fetcher := imagery.NewFetcher(imagery.Config{
		BaseURL:      cfg.Imagery.BaseURL,
		ClientID:     cfg.Imagery.ClientID,
		ClientSecret: cfg.Imagery.ClientSecret,
		Timeout:      cfg.Imagery.Timeout,
	})
	publisher := evidence.NewPublisher(evidence.Config{
		BaseURL:   cfg.Evidence.BaseURL,
		APIKey:    cfg.Evidence.APIKey,
		SecretKey: cfg.Evidence.SecretKey,
		Timeout:   cfg.Evidence.Timeout,
	})
	ledgerClient := ledger.NewClient(ledger.Config{
		GatewayURL:      cfg.Ledger.GatewayURL,
		SigningKey:      cfg.Ledger.SigningKey,
		ReporterAddress: cfg.Ledger.ReporterAddress,
		Timeout:         cfg.Ledger.Timeout,
	})
	sink := syncSink{notifier: alerts.NewNotifier(cfg.Alerts.CallbackURL, 10*time.Second)}

	orch := monitor.NewOrchestrator(fetcher, publisher, ledgerClient, sink, monitor.Params{
		ChangeThreshold:     cfg.Monitor.ChangeThreshold,
		SignificancePercent: cfg.Monitor.SignificancePercent,
		ToleranceDegrees:    cfg.Monitor.ToleranceDegrees,
	})

	outcome := orch.Run(context.Background(), *region, dateBefore, dateAfter)
	report := monitor.ReportFor(*region, dateBefore, dateAfter, outcome)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logging.Fatalf("Failed to encode report: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}
