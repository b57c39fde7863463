// Package convertkit is a minimal client for the ConvertKit v3 API:
// form subscriptions and broadcast create/send. Broadcasts are drafts
// until explicitly sent; callers must treat the two steps as separate
// operations that can fail independently.
package convertkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.convertkit.com/v3"

type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	formID    string
	client    *http.Client
}

func New(apiKey, apiSecret, formID string) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		formID:    formID,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(baseURL, apiKey, apiSecret, formID string) *Client {
	c := New(apiKey, apiSecret, formID)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// IsConfigured reports whether subscriptions can be made (key + form).
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" && c.formID != ""
}

// IsFullyConfigured reports whether broadcasts can be created and sent
// (additionally requires the API secret).
func (c *Client) IsFullyConfigured() bool {
	return c.IsConfigured() && c.apiSecret != ""
}

// Subscribe adds an email address to the configured form.
func (c *Client) Subscribe(ctx context.Context, email, firstName string) error {
	if !c.IsConfigured() {
		return fmt.Errorf("convertkit not configured for subscriptions")
	}
	payload := map[string]string{
		"api_key":    c.apiKey,
		"email":      email,
		"first_name": firstName,
	}
	var resp struct {
		Subscription struct {
			ID int64 `json:"id"`
		} `json:"subscription"`
	}
	return c.post(ctx, fmt.Sprintf("/forms/%s/subscribe", c.formID), payload, &resp)
}

// CreateBroadcast creates a draft broadcast and returns its id. The
// broadcast is not sent until SendBroadcast is called.
func (c *Client) CreateBroadcast(ctx context.Context, subject, html string) (int64, error) {
	if !c.IsFullyConfigured() {
		return 0, fmt.Errorf("convertkit api secret required for broadcasts")
	}
	payload := map[string]string{
		"api_secret":  c.apiSecret,
		"subject":     subject,
		"content":     html,
		"description": "Newsletter - " + time.Now().UTC().Format(time.RFC3339),
	}
	var resp struct {
		Broadcast struct {
			ID int64 `json:"id"`
		} `json:"broadcast"`
	}
	if err := c.post(ctx, "/broadcasts", payload, &resp); err != nil {
		return 0, fmt.Errorf("create broadcast: %w", err)
	}
	if resp.Broadcast.ID == 0 {
		return 0, fmt.Errorf("create broadcast: response missing broadcast id")
	}
	return resp.Broadcast.ID, nil
}

// SendBroadcast sends a previously created draft.
func (c *Client) SendBroadcast(ctx context.Context, id int64) error {
	if !c.IsFullyConfigured() {
		return fmt.Errorf("convertkit api secret required for broadcasts")
	}
	payload := map[string]string{"api_secret": c.apiSecret}
	if err := c.post(ctx, fmt.Sprintf("/broadcasts/%d/send", id), payload, nil); err != nil {
		return fmt.Errorf("send broadcast %d: %w", id, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("convertkit %s: %s", path, apiErrorMessage(resp))
	}
	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiErrorMessage extracts the API's message field when present so
// send failures are reported with the upstream reason.
func apiErrorMessage(resp *http.Response) string {
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &apiErr) == nil {
		if apiErr.Message != "" {
			return fmt.Sprintf("status %d: %s", resp.StatusCode, apiErr.Message)
		}
		if apiErr.Error != "" {
			return fmt.Sprintf("status %d: %s", resp.StatusCode, apiErr.Error)
		}
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
