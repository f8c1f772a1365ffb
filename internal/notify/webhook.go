package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single webhook request.
const DefaultTimeout = 10 * time.Second

// maxResponseBody caps how much of a reply is read.
const maxResponseBody = 64 << 10

// WebhookRequest is the text message body (WeChat Work group robot format).
type WebhookRequest struct {
	MsgType string      `json:"msgtype"`
	Text    WebhookText `json:"text"`
}

// WebhookText carries the message content.
type WebhookText struct {
	Content string `json:"content"`
}

// WebhookResponse is the robot API reply. ErrCode 0 means accepted.
type WebhookResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Webhook posts messages to a chat robot URL.
type Webhook struct {
	url        string
	httpClient *http.Client
}

// NewWebhook creates a webhook notifier for url.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Deliver posts message once. Errors wrap ErrUnreachable or ErrRejected.
func (w *Webhook) Deliver(ctx context.Context, message string) error {
	body, err := json.Marshal(WebhookRequest{
		MsgType: "text",
		Text:    WebhookText{Content: message},
	})
	if err != nil {
		return fmt.Errorf("encode webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d", ErrRejected, resp.StatusCode)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var reply WebhookResponse
	if err := json.Unmarshal(data, &reply); err != nil {
		// Not a robot API; a 2xx is good enough.
		return nil
	}
	if reply.ErrCode != 0 {
		return fmt.Errorf("%w: errcode %d: %s", ErrRejected, reply.ErrCode, reply.ErrMsg)
	}

	return nil
}
