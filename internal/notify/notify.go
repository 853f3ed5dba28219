// Package notify delivers deal lifecycle events to the external notification
// dispatcher.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DealCreated     = "deal.created"
	DealUpdated     = "deal.updated"
	DealActivated   = "deal.activated"
	DealDeactivated = "deal.deactivated"
	DealDeleted     = "deal.deleted"
)

// Event is one deal lifecycle notification.
type Event struct {
	Type      string         `json:"type"`
	DealID    string         `json:"dealId"`
	Code      string         `json:"code,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier writes events to the structured log only.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, e Event) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("deal event", "type", e.Type, "deal_id", e.DealID, "code", e.Code, "actor", e.Actor)
	return nil
}

type WebhookConfig struct {
	URL        string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Client     *http.Client
}

// WebhookNotifier POSTs events as JSON, retrying on transport errors and 5xx responses.
type WebhookNotifier struct {
	url        string
	maxRetries int
	retryDelay time.Duration
	client     *http.Client
}

func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	return &WebhookNotifier{
		url:        cfg.URL,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client:     cfg.Client,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= n.maxRetries; attempt++ {
		retry, err := n.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == n.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.retryDelay):
		}
	}
	return fmt.Errorf("deliver %s: %w", e.Type, lastErr)
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("webhook returned %d", resp.StatusCode)
	case resp.StatusCode >= 300:
		return false, fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return false, nil
}
