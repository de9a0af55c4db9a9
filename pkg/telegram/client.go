package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/akozyreva/stockbot-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.telegram.org"
	responseBodyReadLimit int64 = 2048
)

var (
	errTokenRequired = errors.New("telegram bot token is required")
)

// Client wraps the Telegram Bot API methods the webhook server needs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Bot API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Bot API client for the given token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		token:      trimmedToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// SendMessage posts an HTML-formatted text message to the chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}
	if strings.TrimSpace(text) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}

	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// SetWebhook registers the public webhook URL with the secret token Telegram
// echoes back on every delivery. Pending updates are kept.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}
	if strings.TrimSpace(url) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook url is required")
	}

	payload := map[string]any{
		"url":                  url,
		"secret_token":         secretToken,
		"drop_pending_updates": false,
	}
	return c.call(ctx, "setWebhook", payload, nil)
}

// DeleteWebhook deregisters the webhook, keeping pending updates queued.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}
	return c.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": false}, nil)
}

// GetMe fetches the bot account, useful as a startup credential check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}
	var user User
	if err := c.call(ctx, "getMe", map[string]any{}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// call posts one Bot API method and decodes the result into out when given.
func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("marshal %s request", method))
	}

	url := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.baseURL, "/"), c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("build %s request", method))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", method))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("read %s response", method))
	}

	var apiResp struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", method))
	}
	if !apiResp.OK {
		desc := strings.TrimSpace(apiResp.Description)
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, desc),
			fmt.Sprintf("%s rejected: %s", method, desc))
	}

	if out != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s result", method))
		}
	}
	return nil
}
