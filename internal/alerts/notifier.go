// Package alerts is the pipeline's side of the alert sink: a best-effort
// HTTP callback notifier plus the durable SQLite alert and run tables.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/andreeap/go-forest-watch/internal/models"
)

type Notifier struct {
	callbackURL string
	client      *http.Client
}

func NewNotifier(callbackURL string, timeout time.Duration) *Notifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// Notify POSTs the notification to the configured callback. Failures are
// logged and swallowed; notification is best-effort and never fails a run.
func (n *Notifier) Notify(ctx context.Context, note models.Notification) error {
	if n.callbackURL == "" {
		slog.Debug("alert callback not configured, dropping notification", "forest", note.ForestName)
		return nil
	}

	body, err := json.Marshal(note)
	if err != nil {
		slog.Error("notification encoding failed", "forest", note.ForestName, "error", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.callbackURL, bytes.NewReader(body))
	if err != nil {
		slog.Error("notification request creation failed", "error", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Warn("alert notification failed", "forest", note.ForestName, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("alert sink returned non-success", "forest", note.ForestName, "status", resp.Status)
		return nil
	}

	slog.Info("alert notification delivered", "forest", note.ForestName, "type", note.AlertType)
	return nil
}
