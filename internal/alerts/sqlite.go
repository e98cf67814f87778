package alerts

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/andreeap/go-forest-watch/internal/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			forest_name TEXT NOT NULL,
			type TEXT NOT NULL,
			percent_changed REAL NOT NULL,
			evidence_cid TEXT NOT NULL,
			ledger_event_id INTEGER,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			region TEXT NOT NULL,
			date_before TEXT NOT NULL,
			date_after TEXT NOT NULL,
			status TEXT NOT NULL,
			percent_deforestation REAL NOT NULL,
			percent_reforestation REAL NOT NULL,
			evidence_cid TEXT,
			ledger_event_id INTEGER,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_forest ON alerts(forest_name);
		CREATE INDEX IF NOT EXISTS idx_alerts_type ON alerts(type);
		CREATE INDEX IF NOT EXISTS idx_runs_region ON runs(region);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddAlert(ctx context.Context, a *models.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, forest_name, type, percent_changed, evidence_cid, ledger_event_id, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ForestName, string(a.Type), a.PercentChanged, a.EvidenceCID,
		nullableUint(a.LedgerEventID), a.Latitude, a.Longitude, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting alert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error) {
	query := `SELECT id, forest_name, type, percent_changed, evidence_cid, ledger_event_id, latitude, longitude, created_at FROM alerts WHERE 1=1`
	var args []any

	if opts.Region != "" {
		query += " AND forest_name = ?"
		args = append(args, opts.Region)
	}
	if opts.Type != nil {
		query += " AND type = ?"
		args = append(args, string(*opts.Type))
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		var typ string
		var eventID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.ForestName, &typ, &a.PercentChanged, &a.EvidenceCID, &eventID, &a.Latitude, &a.Longitude, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		a.Type = models.AlertType(typ)
		if eventID.Valid {
			id := uint64(eventID.Int64)
			a.LedgerEventID = &id
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddRun(ctx context.Context, r *models.RunReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, region, date_before, date_after, status, percent_deforestation, percent_reforestation, evidence_cid, ledger_event_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Region, r.DateBefore, r.DateAfter, r.Status,
		r.PercentDeforestation, r.PercentReforestation, r.EvidenceCID,
		nullableUint(r.LedgerEventID), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, opts Filter) ([]models.RunReport, error) {
	query := `SELECT id, region, date_before, date_after, status, percent_deforestation, percent_reforestation, evidence_cid, ledger_event_id, created_at FROM runs WHERE 1=1`
	var args []any

	if opts.Region != "" {
		query += " AND region = ?"
		args = append(args, opts.Region)
	}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, opts.Status)
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}
	defer rows.Close()

	var out []models.RunReport
	for rows.Next() {
		var r models.RunReport
		var eventID sql.NullInt64
		var cid sql.NullString
		if err := rows.Scan(&r.ID, &r.Region, &r.DateBefore, &r.DateAfter, &r.Status, &r.PercentDeforestation, &r.PercentReforestation, &cid, &eventID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning run: %w", err)
		}
		r.EvidenceCID = cid.String
		if eventID.Valid {
			id := uint64(eventID.Int64)
			r.LedgerEventID = &id
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullableUint(v *uint64) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
