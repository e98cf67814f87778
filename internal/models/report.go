package models

import "time"

// RunReport is the terminal record of one orchestration run for one region.
// It is appended to the run table after every run, whatever the outcome.
type RunReport struct {
	ID                   string
	Region               string
	DateBefore           string // calendar date, 2006-01-02
	DateAfter            string
	Status               string
	PercentDeforestation float64
	PercentReforestation float64
	EvidenceCID          string
	LedgerEventID        *uint64
	CreatedAt            time.Time
}
