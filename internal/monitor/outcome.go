package monitor

import (
	"github.com/andreeap/go-forest-watch/internal/ledger"
	"github.com/andreeap/go-forest-watch/internal/models"
)

const (
	StatusAborted             = "Aborted"
	StatusInitialRegistration = "Initial registration"
	StatusDeforestation       = "Deforestation"
	StatusReforestation       = "Reforestation"
	StatusUnchanged           = "No significant change"
)

// Outcome is the terminal state of one monitoring run. It is a closed set
// of variants so callers can switch exhaustively instead of matching on
// status strings.
type Outcome interface {
	Status() string
	sealed()
}

// Aborted means the run could not proceed: imagery was unavailable or the
// ledger history query failed.
type Aborted struct {
	Reason string
}

// InitialRegistration means the region had no prior ledger history, so this
// run established its baseline instead of reporting change. The detected
// percentages are retained for the report but never classified as an event.
type InitialRegistration struct {
	EvidenceCID          string // empty when evidence publication failed
	Event                *ledger.Event
	PercentDeforestation float64
	PercentReforestation float64
}

// Unchanged means neither change percentage reached significance.
type Unchanged struct {
	PercentDeforestation float64
	PercentReforestation float64
}

// Changed means a significant event was detected. EvidenceCID is empty when
// publication failed (in which case no ledger event or notification was
// attempted), and Event is nil when the run was not notarized.
type Changed struct {
	Kind                 models.AlertType
	PercentDeforestation float64
	PercentReforestation float64
	EvidenceCID          string
	Event                *ledger.Event
}

func (Aborted) Status() string             { return StatusAborted }
func (InitialRegistration) Status() string { return StatusInitialRegistration }
func (Unchanged) Status() string           { return StatusUnchanged }

func (c Changed) Status() string {
	if c.Kind == models.AlertTypeReforestation {
		return StatusReforestation
	}
	return StatusDeforestation
}

func (Aborted) sealed()             {}
func (InitialRegistration) sealed() {}
func (Unchanged) sealed()           {}
func (Changed) sealed()             {}
