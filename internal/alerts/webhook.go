package alerts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// WebhookSink POSTs the payload as JSON. Any non-2xx status is a failure.
type WebhookSink struct {
	client *http.Client
}

// NewWebhookSink creates a webhook sink. A nil client means http.DefaultClient;
// per-delivery timeouts come from the dispatcher's context.
func NewWebhookSink(client *http.Client) *WebhookSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSink{client: client}
}

// Deliver implements Sink.
func (s *WebhookSink) Deliver(ctx context.Context, ep Endpoint, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("WebhookSink: encoding payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("WebhookSink: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("WebhookSink: posting to %s: %w", ep.URL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("WebhookSink: %s responded %d", ep.URL, resp.StatusCode)
	}
	return nil
}
