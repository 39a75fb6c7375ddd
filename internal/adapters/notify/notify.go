// Package notify delivers operator-facing failure notifications to a chat
// webhook. Delivery is best effort: notification problems are logged and
// swallowed so they can never fail a sync cycle.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/snagasawa/kpisync/pkg/logger"
)

const defaultHTTPTimeout = 10 * time.Second

// Notifier sends a short operator-facing message.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Webhook posts {"text": ...} payloads to a chat webhook URL. An empty URL
// disables delivery.
type Webhook struct {
	url    string
	client *http.Client
	log    logger.Logger
}

// Option configures a Webhook.
type Option func(*Webhook)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Webhook) {
		if c != nil {
			w.client = c
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(l logger.Logger) Option {
	return func(w *Webhook) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWebhook creates a webhook notifier for the given URL.
func NewWebhook(url string, opts ...Option) *Webhook {
	w := &Webhook{
		url:    url,
		client: &http.Client{Timeout: defaultHTTPTimeout},
		log:    logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Notify posts the message. A missing URL is a silent no-op; send failures
// are logged and dropped.
func (w *Webhook) Notify(ctx context.Context, text string) {
	if w.url == "" {
		return
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		w.log.Error(ctx, "encode notification", logger.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.log.Error(ctx, "build notification request", logger.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Error(ctx, "send notification", logger.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		w.log.Error(ctx, "notification rejected",
			logger.Error(fmt.Errorf("status %d", resp.StatusCode)))
	}
}
