package models

import "time"

type AlertType string

const (
	AlertTypeBaseline      AlertType = "BASELINE"
	AlertTypeDeforestation AlertType = "DEFORESTATION"
	AlertTypeReforestation AlertType = "REFORESTATION"
)

// Alert is the durable record handed to the alert sink after a run that
// produced evidence. LedgerEventID is nil when the run was not notarized
// (no signing key configured, or the ledger append failed).
type Alert struct {
	ID             string
	ForestName     string
	Type           AlertType
	PercentChanged float64
	EvidenceCID    string
	LedgerEventID  *uint64
	Latitude       float64
	Longitude      float64
	CreatedAt      time.Time
}

// Notification is the best-effort HTTP callback payload.
type Notification struct {
	ForestName     string  `json:"forestName"`
	AlertType      string  `json:"alertType"`
	PercentChanged float64 `json:"percentChanged"`
	EvidenceCID    string  `json:"evidenceContentId"`
	Timestamp      string  `json:"timestamp"` // ISO 8601
}
