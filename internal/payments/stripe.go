// Package payments wraps the small slice of the Stripe API the
// advertiser checkout needs: creating a payment intent for a week
// booking and confirming it. Card collection happens client side; the
// server only ever sees intent ids.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com/v1"

// SlotPriceCents is the flat price of one sponsorship week.
const SlotPriceCents = 29900

var ErrNotConfigured = errors.New("stripe secret key is not configured")

// Intent is the subset of a Stripe payment intent the booking flow uses.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type Client struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func New(secretKey string) *Client {
	return NewWithBaseURL(secretKey, defaultBaseURL)
}

func NewWithBaseURL(secretKey, baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) IsConfigured() bool { return c.secretKey != "" }

// CreateIntent opens a payment intent for one sponsorship week. The
// returned client secret goes back to the browser; confirmation is a
// separate step.
func (c *Client) CreateIntent(ctx context.Context, submissionID, companyName string) (Intent, error) {
	if !c.IsConfigured() {
		return Intent{}, ErrNotConfigured
	}
	form := url.Values{
		"amount":                 {strconv.Itoa(SlotPriceCents)},
		"currency":               {"usd"},
		"metadata[submissionId]": {submissionID},
		"metadata[company]":      {companyName},
	}
	return c.post(ctx, "/payment_intents", form)
}

// ConfirmIntent confirms a previously created intent by id.
func (c *Client) ConfirmIntent(ctx context.Context, intentID string) (Intent, error) {
	if !c.IsConfigured() {
		return Intent{}, ErrNotConfigured
	}
	return c.post(ctx, "/payment_intents/"+intentID+"/confirm", url.Values{})
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return Intent{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Intent{}, fmt.Errorf("stripe %s: read body: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Intent{}, fmt.Errorf("stripe %s: status %d: %s", path, resp.StatusCode, apiErrorMessage(body))
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return Intent{}, fmt.Errorf("stripe %s: decode response: %w", path, err)
	}
	return intent, nil
}

// apiErrorMessage pulls the human message out of a Stripe error body,
// falling back to the raw payload.
func apiErrorMessage(body []byte) string {
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Message != "" {
		return wrapped.Error.Message
	}
	return strings.TrimSpace(string(body))
}
