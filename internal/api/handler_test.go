package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andreeap/go-forest-watch/internal/alerts"
	"github.com/andreeap/go-forest-watch/internal/models"
)

// mockStore implements alerts.Store for handler tests.
type mockStore struct {
	alerts  []models.Alert
	runs    []models.RunReport
	listErr error

	lastAlertFilter alerts.Filter
	lastRunFilter   alerts.Filter
}

func (m *mockStore) AddAlert(ctx context.Context, a *models.Alert) error {
	m.alerts = append(m.alerts, *a)
	return nil
}

func (m *mockStore) ListAlerts(ctx context.Context, opts alerts.Filter) ([]models.Alert, error) {
	m.lastAlertFilter = opts
	if m.listErr != nil {
		return nil, m.listErr
	}

	results := m.alerts
	if opts.Type != nil {
		var filtered []models.Alert
		for _, a := range results {
			if a.Type == *opts.Type {
				filtered = append(filtered, a)
			}
		}
		results = filtered
	}
	if opts.Region != "" {
		var filtered []models.Alert
		for _, a := range results {
			if a.ForestName == opts.Region {
				filtered = append(filtered, a)
			}
		}
		results = filtered
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (m *mockStore) AddRun(ctx context.Context, r *models.RunReport) error {
	m.runs = append(m.runs, *r)
	return nil
}

func (m *mockStore) ListRuns(ctx context.Context, opts alerts.Filter) ([]models.RunReport, error) {
	m.lastRunFilter = opts
	if m.listErr != nil {
		return nil, m.listErr
	}

	results := m.runs
	if opts.Status != "" {
		var filtered []models.RunReport
		for _, r := range results {
			if r.Status == opts.Status {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func setupTestRouter(store alerts.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(store)
	handler.RegisterRoutes(router, prometheus.NewRegistry())
	return router
}

func seedAlert(forest string, typ models.AlertType) models.Alert {
	return models.Alert{
		ID:             "a-" + forest,
		ForestName:     forest,
		Type:           typ,
		PercentChanged: 8.2,
		EvidenceCID:    "QmMeta1",
		Latitude:       45.025,
		Longitude:      25.025,
		CreatedAt:      time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(&mockStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestGetAlerts(t *testing.T) {
	store := &mockStore{alerts: []models.Alert{
		seedAlert("Apuseni", models.AlertTypeDeforestation),
		seedAlert("Retezat", models.AlertTypeBaseline),
	}}
	router := setupTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Alerts []alertDTO `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(resp.Alerts))
	}
	if resp.Alerts[0].Type != "deforestation" {
		t.Errorf("expected lowercase type, got %q", resp.Alerts[0].Type)
	}
	if resp.Alerts[0].CreatedAt != "2025-09-15T12:00:00Z" {
		t.Errorf("expected RFC3339 timestamp, got %q", resp.Alerts[0].CreatedAt)
	}
}

func TestGetAlerts_TypeFilter(t *testing.T) {
	store := &mockStore{alerts: []models.Alert{
		seedAlert("Apuseni", models.AlertTypeDeforestation),
		seedAlert("Retezat", models.AlertTypeReforestation),
	}}
	router := setupTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts?type=reforestation", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if store.lastAlertFilter.Type == nil || *store.lastAlertFilter.Type != models.AlertTypeReforestation {
		t.Errorf("type query should map to a filter, got %+v", store.lastAlertFilter)
	}

	var resp struct {
		Alerts []alertDTO `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Alerts) != 1 || resp.Alerts[0].ForestName != "Retezat" {
		t.Errorf("expected only the Retezat alert, got %+v", resp.Alerts)
	}
}

func TestGetAlerts_LimitClamped(t *testing.T) {
	store := &mockStore{}
	router := setupTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts?limit=9999", nil)
	router.ServeHTTP(w, req)

	if store.lastAlertFilter.Limit != 20 {
		t.Errorf("out-of-range limit should fall back to the default, got %d", store.lastAlertFilter.Limit)
	}
}

func TestGetAlerts_GeoJSONFormat(t *testing.T) {
	store := &mockStore{alerts: []models.Alert{seedAlert("Apuseni", models.AlertTypeDeforestation)}}
	router := setupTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts?format=geojson", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected geo+json content type, got %q", ct)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decoding feature collection: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection: %+v", fc)
	}
	coords := fc.Features[0].Geometry.Coordinates
	if len(coords) != 2 || coords[0] != 25.025 || coords[1] != 45.025 {
		t.Errorf("geojson orders lon,lat; got %v", coords)
	}
}

func TestGetAlerts_StoreFailure(t *testing.T) {
	store := &mockStore{listErr: errors.New("db locked")}
	router := setupTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestGetRuns(t *testing.T) {
	eventID := uint64(4)
	store := &mockStore{runs: []models.RunReport{
		{
			ID: "r1", Region: "Apuseni", DateBefore: "2025-09-14", DateAfter: "2025-09-15",
			Status: "Deforestation", PercentDeforestation: 8.2,
			EvidenceCID: "QmMeta1", LedgerEventID: &eventID,
			CreatedAt: time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			ID: "r2", Region: "Apuseni", DateBefore: "2025-09-15", DateAfter: "2025-09-16",
			Status: "No significant change",
			CreatedAt: time.Date(2025, 9, 16, 12, 0, 0, 0, time.UTC),
		},
	}}
	router := setupTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs?status=Deforestation", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Runs []runDTO `json:"runs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(resp.Runs))
	}
	if resp.Runs[0].LedgerEventID == nil || *resp.Runs[0].LedgerEventID != 4 {
		t.Errorf("ledger event id missing from dto: %+v", resp.Runs[0])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(&mockStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
