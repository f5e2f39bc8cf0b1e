package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rustyeddy/tradesense/signals"
)

// WebhookNotifier POSTs alerts as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	now    func() time.Time
}

type webhookPayload struct {
	Message
	Pair       string            `json:"pair"`
	Direction  signals.Direction `json:"direction"`
	Confidence float64           `json:"confidence"`
	TS         string            `json:"ts"`
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, s signals.Signal) error {
	body, err := json.Marshal(webhookPayload{
		Message:    NewMessage(s),
		Pair:       s.Pair.String(),
		Direction:  s.Direction,
		Confidence: s.Confidence,
		TS:         w.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
