// Package payment is a thin synchronous adapter for the card-payment
// provider: payment intents, refunds, and webhook signature verification.
package payment

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

// ErrUnavailable means the adapter has no secret key configured; the
// dependent feature is disabled rather than the process refusing to start.
var ErrUnavailable = errors.New("payment service unavailable")

// Error is a structured provider error. Card errors are the customer's
// problem (declines and the like); everything else is the provider's.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment provider error (%s/%s): %s", e.Type, e.Code, e.Message)
}

// CardError reports whether the failure is attributable to the card itself.
func (e *Error) CardError() bool {
	return e.Type == "card_error"
}

// Intent mirrors the provider's payment-intent object.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
	LatestCharge string            `json:"latest_charge,omitempty"`
}

// Refund mirrors the provider's refund object.
type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// RefundParams describes one refund request. Exactly one of ChargeID or
// PaymentIntentID must be set; a nil AmountMinor refunds the full charge.
type RefundParams struct {
	ChargeID        string
	PaymentIntentID string
	AmountMinor     *int64
	Reason          string
}

// Client talks to the provider's REST API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Enabled reports whether a secret key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// CreateIntent creates a payment intent and returns its client secret for the
// browser to complete the payment with.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var intent Intent
	if err := c.do(ctx, http.MethodPost, "/payment_intents", form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// GetIntent retrieves the current state of a payment intent.
func (c *Client) GetIntent(ctx context.Context, id string) (*Intent, error) {
	var intent Intent
	if err := c.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(id), nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// CreateRefund issues a refund against a charge or a payment intent.
func (c *Client) CreateRefund(ctx context.Context, p RefundParams) (*Refund, error) {
	form := url.Values{}
	switch {
	case p.ChargeID != "":
		form.Set("charge", p.ChargeID)
	case p.PaymentIntentID != "":
		form.Set("payment_intent", p.PaymentIntentID)
	default:
		return nil, errors.New("payment: refund needs a charge or a payment intent id")
	}
	if p.AmountMinor != nil {
		form.Set("amount", strconv.FormatInt(*p.AmountMinor, 10))
	}
	if p.Reason != "" {
		form.Set("reason", p.Reason)
	}

	var ref Refund
	if err := c.do(ctx, http.MethodPost, "/refunds", form, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if !c.Enabled() {
		return ErrUnavailable
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("payment: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("payment: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var wrapper struct {
			Error *Error `json:"error"`
		}
		if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Error != nil {
			return wrapper.Error
		}
		return fmt.Errorf("payment: provider returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("payment: failed to decode response: %w", err)
	}
	return nil
}
