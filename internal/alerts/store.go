package alerts

import (
	"context"

	"github.com/andreeap/go-forest-watch/internal/models"
)

type Filter struct {
	Limit  int
	Region string
	Type   *models.AlertType
	Status string // run status filter, e.g. "Deforestation"
}

// Store is the durable half of the alert sink: an append-only alert table
// plus the run-report table the dashboard reads.
type Store interface {
	AddAlert(ctx context.Context, a *models.Alert) error
	ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error)
	AddRun(ctx context.Context, r *models.RunReport) error
	ListRuns(ctx context.Context, opts Filter) ([]models.RunReport, error)
}
