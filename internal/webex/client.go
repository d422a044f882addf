package webex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	APIBase string
	Token   string
	Timeout time.Duration
}

// Client is a minimal Webex Teams REST client covering what the bot needs:
// messages, attachment actions, and webhook management.
type Client struct {
	httpClient *http.Client
	apiBase    string
	token      string
	logger     *slog.Logger
}

type Message struct {
	ID          string `json:"id,omitempty"`
	RoomID      string `json:"roomId,omitempty"`
	PersonEmail string `json:"personEmail,omitempty"`
	Text        string `json:"text,omitempty"`
}

// CreateMessage is the outbound message payload. Exactly one of RoomID or
// ToPersonID addresses it; Attachments carries adaptive cards.
type CreateMessage struct {
	RoomID      string       `json:"roomId,omitempty"`
	ToPersonID  string       `json:"toPersonId,omitempty"`
	Text        string       `json:"text,omitempty"`
	Markdown    string       `json:"markdown,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	ContentType string      `json:"contentType"`
	Content     interface{} `json:"content"`
}

type AttachmentAction struct {
	ID        string            `json:"id"`
	MessageID string            `json:"messageId"`
	Inputs    map[string]string `json:"inputs"`
}

type Webhook struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	TargetURL string `json:"targetUrl"`
	Resource  string `json:"resource"`
	Event     string `json:"event"`
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		token:      cfg.Token,
		logger:     logger,
	}
}

func (c *Client) CreateMessage(ctx context.Context, msg CreateMessage) error {
	_, err := c.call(ctx, http.MethodPost, "/messages", msg)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (c *Client) GetMessage(ctx context.Context, messageID string) (Message, error) {
	body, err := c.call(ctx, http.MethodGet, "/messages/"+messageID, nil)
	if err != nil {
		return Message{}, fmt.Errorf("failed to get message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("failed to decode message: %w", err)
	}
	return msg, nil
}

func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	_, err := c.call(ctx, http.MethodDelete, "/messages/"+messageID, nil)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (c *Client) GetAttachmentAction(ctx context.Context, actionID string) (AttachmentAction, error) {
	body, err := c.call(ctx, http.MethodGet, "/attachment/actions/"+actionID, nil)
	if err != nil {
		return AttachmentAction{}, fmt.Errorf("failed to get attachment action: %w", err)
	}

	var action AttachmentAction
	if err := json.Unmarshal(body, &action); err != nil {
		return AttachmentAction{}, fmt.Errorf("failed to decode attachment action: %w", err)
	}
	return action, nil
}

func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	body, err := c.call(ctx, http.MethodGet, "/webhooks", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}

	var response struct {
		Items []Webhook `json:"items"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode webhooks: %w", err)
	}
	return response.Items, nil
}

func (c *Client) CreateWebhook(ctx context.Context, webhook Webhook) error {
	_, err := c.call(ctx, http.MethodPost, "/webhooks", webhook)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	return nil
}

// EnsureWebhook registers a webhook unless one already points at the target
// URL, making startup registration idempotent.
func (c *Client) EnsureWebhook(ctx context.Context, name, targetURL, resource, event string) error {
	existing, err := c.ListWebhooks(ctx)
	if err != nil {
		return err
	}

	for _, webhook := range existing {
		if webhook.TargetURL == targetURL {
			c.logger.Info("webhook already registered, skipping",
				"target_url", targetURL,
			)
			return nil
		}
	}

	if err := c.CreateWebhook(ctx, Webhook{
		Name:      name,
		TargetURL: targetURL,
		Resource:  resource,
		Event:     event,
	}); err != nil {
		return err
	}

	c.logger.Info("webhook registered",
		"name", name,
		"target_url", targetURL,
		"resource", resource,
		"event", event,
	)
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("webex API returned status %d", resp.StatusCode)
	}

	return body, nil
}
