// Package webhook implements the Notifier port as an HTTP POST to a
// configured subscriber endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/cadence/internal/ports/secondary"
)

const defaultRequestTimeout = 15 * time.Second

// Notifier posts drop announcements to a webhook URL.
type Notifier struct {
	url        string
	httpClient *http.Client
}

// NewNotifier creates a webhook notifier.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

type notifyPayload struct {
	AgentID   string `json:"agent_id"`
	DropID    string `json:"drop_id"`
	Timestamp string `json:"timestamp"`
}

// Notify announces a committed drop. Callers treat failure as
// log-and-continue; delivery never gates the scheduling path.
func (n *Notifier) Notify(ctx context.Context, agentID, dropID string) error {
	payload, err := json.Marshal(notifyPayload{
		AgentID:   agentID,
		DropID:    dropID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

var _ secondary.Notifier = (*Notifier)(nil)
