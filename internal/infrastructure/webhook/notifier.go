package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"PaperNotifier/internal/config"
	"PaperNotifier/internal/ports"
)

// Notifier posts digest output to a Feishu webhook. Flow webhooks take
// one JSON payload per paper keyed by configured field names; bot
// webhooks take a single text message.
type Notifier struct {
	url    string
	client *http.Client
	logger *log.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint.
func NewNotifier(cfg config.WebhookConfig, logger *log.Logger) *Notifier {
	return &Notifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: 20 * time.Second},
		logger: logger,
	}
}

// SendFlow posts one flow payload as JSON.
func (n *Notifier) SendFlow(ctx context.Context, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.post(ctx, body)
}

// SendText posts a bot text message.
func (n *Notifier) SendText(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]any{
		"msg_type": "text",
		"content":  map[string]string{"text": text},
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return n.post(ctx, body)
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	if n.url == "" || n.client == nil {
		return fmt.Errorf("webhook notifier misconfigured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	echo, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	if n.logger != nil {
		n.logger.Printf("webhook response: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(echo)))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook error %s: %s", resp.Status, strings.TrimSpace(string(echo)))
	}
	return nil
}
