package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clearhaul/docvalidator/pkg/logger"
	"github.com/clearhaul/docvalidator/pkg/queue"
)

// Dispatcher delivers an entry summary to the external messaging
// collaborator. The engine only decides when to call it.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *queue.EntryNotification) error
}

// WebhookDispatcher posts the summary as JSON to the configured endpoint.
type WebhookDispatcher struct {
	url    string
	client *http.Client
	logger logger.Logger
}

func NewWebhookDispatcher(url string, log logger.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: log,
	}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, n *queue.EntryNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook dispatch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	d.logger.Info("Entry notification dispatched",
		logger.String("entryId", n.EntryID),
		logger.Int("documents", len(n.Outcomes)),
	)
	return nil
}
