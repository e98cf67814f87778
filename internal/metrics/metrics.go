package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forest_watch",
			Name:      "runs_total",
			Help:      "Monitoring runs completed, partitioned by terminal status.",
		},
		[]string{"status"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "forest_watch",
			Name:      "run_seconds",
			Help:      "End-to-end duration of one region's monitoring run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	notarizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "forest_watch",
			Name:      "ledger_events_total",
			Help:      "Events confirmed on the ledger (baselines included).",
		},
	)

	publishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "forest_watch",
			Name:      "evidence_publish_failures_total",
			Help:      "Evidence publications that failed after an upload was attempted.",
		},
	)
)

// Register attaches the forest-watch collectors to reg.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		runsTotal,
		runDurationSeconds,
		notarizedTotal,
		publishFailuresTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRun records one completed run.
func ObserveRun(duration time.Duration, status string) {
	runsTotal.WithLabelValues(status).Inc()
	if duration < 0 {
		duration = 0
	}
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveLedgerEvent records one confirmed ledger write.
func ObserveLedgerEvent() {
	notarizedTotal.Inc()
}

// ObservePublishFailure records one failed evidence publication.
func ObservePublishFailure() {
	publishFailuresTotal.Inc()
}
