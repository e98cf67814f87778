package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/andreeap/go-forest-watch/internal/models"
)

func testNote() models.Notification {
	return models.Notification{
		ForestName:     "Apuseni",
		AlertType:      "DEFORESTATION",
		PercentChanged: 8.2,
		EvidenceCID:    "QmMeta1",
		Timestamp:      "2025-09-15T12:00:00Z",
	}
}

func TestNotify_PostsJSONPayload(t *testing.T) {
	var got models.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding notification: %v", err)
		}
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, 0)
	if err := n.Notify(context.Background(), testNote()); err != nil {
		t.Fatalf("notify returned error: %v", err)
	}

	if got.ForestName != "Apuseni" || got.AlertType != "DEFORESTATION" {
		t.Errorf("payload fields lost: %+v", got)
	}
	if got.EvidenceCID != "QmMeta1" {
		t.Errorf("expected evidence cid in payload, got %q", got.EvidenceCID)
	}
}

func TestNotify_SwallowsSinkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sink overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := NewNotifier(srv.URL, 0).Notify(context.Background(), testNote()); err != nil {
		t.Errorf("sink failure must be swallowed, got %v", err)
	}
}

func TestNotify_SwallowsUnreachableSink(t *testing.T) {
	n := NewNotifier("http://127.0.0.1:1", 500*time.Millisecond)
	if err := n.Notify(context.Background(), testNote()); err != nil {
		t.Errorf("unreachable sink must be swallowed, got %v", err)
	}
}

func TestNotify_UnconfiguredIsNoOp(t *testing.T) {
	if err := NewNotifier("", 0).Notify(context.Background(), testNote()); err != nil {
		t.Errorf("unconfigured notifier should drop silently, got %v", err)
	}
}

func TestDispatcher_DeliversQueuedNotifications(t *testing.T) {
	var (
		mu       sync.Mutex
		received []string
	)
	done := make(chan struct{}, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var note models.Notification
		if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
			t.Errorf("decoding notification: %v", err)
		}
		mu.Lock()
		received = append(received, note.ForestName)
		mu.Unlock()
		done <- struct{}{}
	}))
	defer srv.Close()

	d := NewDispatcher(NewNotifier(srv.URL, 0), 2, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, forest := range []string{"Apuseni", "Retezat", "Fagaras"} {
		note := testNote()
		note.ForestName = forest
		d.Notify(note)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for notifications")
		}
	}
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 3 {
		t.Errorf("expected 3 deliveries, got %d", len(received))
	}
}
