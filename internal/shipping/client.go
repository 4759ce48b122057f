// Package shipping is a thin adapter for the shipping-label provider: build a
// shipment, pick a rate, purchase a label. In sandbox mode (test API key) it
// substitutes a fixed recipient for incomplete addresses, restricts rates to
// the one carrier that needs no registration, and synthesizes tracking
// numbers the provider omits.
package shipping

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://api.goshippo.com"
	testKeyPrefix  = "shippo_test_"
	sandboxCarrier = "usps"

	unitWeightLb = 0.5
	minWeightLb  = 1.0
)

var (
	ErrUnavailable         = errors.New("shipping service unavailable")
	ErrSenderIncomplete    = errors.New("sender address incomplete")
	ErrRecipientIncomplete = errors.New("recipient address incomplete")
	ErrNoRates             = errors.New("no shipping rates available")
)

// LabelError carries the provider's diagnostics for a failed label purchase.
type LabelError struct {
	Messages []string
}

func (e *LabelError) Error() string {
	if len(e.Messages) == 0 {
		return "label purchase failed"
	}
	return "label purchase failed: " + e.Messages[0]
}

// Address is a postal address as the provider expects it.
type Address struct {
	Name    string `json:"name,omitempty"`
	Street1 string `json:"street1,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// sandboxRecipient is the provider's always-valid test address.
var sandboxRecipient = Address{
	Name:    "Test Recipient",
	Street1: "215 Clayton St",
	City:    "San Francisco",
	State:   "CA",
	Zip:     "94117",
	Country: "US",
}

// Dimensions are parcel dimensions in inches.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var defaultDimensions = Dimensions{Length: 12, Width: 9, Height: 3}

// Options are caller overrides for one label purchase.
type Options struct {
	Carrier      string
	ServiceLevel string
	WeightLb     float64
	Dimensions   *Dimensions
}

// LabelRequest describes the shipment to buy a label for. Units is the total
// item quantity, used to derive the default parcel weight.
type LabelRequest struct {
	OrderID   string
	Recipient Address
	Units     int
	Options   Options
}

// Label is the outcome of a successful purchase.
type Label struct {
	TrackingNumber string
	Carrier        string
	LabelURL       string
	TrackingURL    string
	TransactionID  string
}

// Client talks to the provider's REST API.
type Client struct {
	apiKey  string
	baseURL string
	sender  Address
	http    *http.Client
}

func NewClient(apiKey string, sender Address) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		sender:  sender,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(apiKey string, sender Address, baseURL string) *Client {
	c := NewClient(apiKey, sender)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Sandbox reports whether the key targets the provider's test environment.
func (c *Client) Sandbox() bool {
	return strings.HasPrefix(c.apiKey, testKeyPrefix)
}

type rate struct {
	ObjectID     string `json:"object_id"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Provider     string `json:"provider"`
	ServiceLevel struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	} `json:"servicelevel"`
}

type shipmentResponse struct {
	ObjectID string `json:"object_id"`
	Rates    []rate `json:"rates"`
}

type transactionResponse struct {
	ObjectID       string `json:"object_id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url_provider"`
	LabelURL       string `json:"label_url"`
	Messages       []struct {
		Text string `json:"text"`
	} `json:"messages"`
}

// PurchaseLabel runs the full flow: validate addresses, create the shipment,
// select a rate, buy the label.
func (c *Client) PurchaseLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	if !c.Enabled() {
		return nil, ErrUnavailable
	}
	if err := validateSender(c.sender); err != nil {
		return nil, err
	}

	recipient := req.Recipient
	if !recipientComplete(recipient) {
		if !c.Sandbox() {
			return nil, fmt.Errorf("%w: street, city, state, zip and country are required", ErrRecipientIncomplete)
		}
		recipient = sandboxRecipient
	}

	weight := req.Options.WeightLb
	if weight <= 0 {
		weight = float64(req.Units) * unitWeightLb
		if weight < minWeightLb {
			weight = minWeightLb
		}
	}
	dims := defaultDimensions
	if req.Options.Dimensions != nil {
		dims = *req.Options.Dimensions
	}

	shipment, err := c.createShipment(ctx, recipient, weight, dims)
	if err != nil {
		return nil, err
	}

	selected, err := c.selectRate(shipment.Rates, req.Options)
	if err != nil {
		return nil, err
	}

	tx, err := c.purchaseTransaction(ctx, selected.ObjectID)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(tx.Status, "ERROR") {
		msgs := make([]string, 0, len(tx.Messages))
		for _, m := range tx.Messages {
			msgs = append(msgs, m.Text)
		}
		return nil, &LabelError{Messages: msgs}
	}

	tracking := tx.TrackingNumber
	if tracking == "" && c.Sandbox() {
		tracking = syntheticTracking(tx.ObjectID)
	}

	return &Label{
		TrackingNumber: tracking,
		Carrier:        strings.ToLower(selected.Provider),
		LabelURL:       tx.LabelURL,
		TrackingURL:    tx.TrackingURL,
		TransactionID:  tx.ObjectID,
	}, nil
}

func (c *Client) createShipment(ctx context.Context, recipient Address, weightLb float64, dims Dimensions) (*shipmentResponse, error) {
	payload := map[string]any{
		"address_from": c.sender,
		"address_to":   recipient,
		"parcels": []map[string]any{{
			"length":        dims.Length,
			"width":         dims.Width,
			"height":        dims.Height,
			"distance_unit": "in",
			"weight":        weightLb,
			"mass_unit":     "lb",
		}},
		"async": false,
	}

	var shipment shipmentResponse
	if err := c.post(ctx, "/shipments/", payload, &shipment); err != nil {
		return nil, err
	}
	return &shipment, nil
}

// selectRate picks the caller's requested service level when present,
// otherwise the cheapest rate. Sandbox keys only see the one carrier that
// works without a registered account.
func (c *Client) selectRate(rates []rate, opts Options) (*rate, error) {
	candidates := make([]rate, 0, len(rates))
	for _, r := range rates {
		if c.Sandbox() && !strings.EqualFold(r.Provider, sandboxCarrier) {
			continue
		}
		if opts.Carrier != "" && !strings.EqualFold(r.Provider, opts.Carrier) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return nil, ErrNoRates
	}

	if opts.ServiceLevel != "" {
		for i := range candidates {
			if strings.EqualFold(candidates[i].ServiceLevel.Token, opts.ServiceLevel) {
				return &candidates[i], nil
			}
		}
	}

	cheapest := &candidates[0]
	cheapestAmount, err := decimal.NewFromString(cheapest.Amount)
	if err != nil {
		return nil, fmt.Errorf("shipping: bad rate amount %q: %w", cheapest.Amount, err)
	}
	for i := 1; i < len(candidates); i++ {
		amount, err := decimal.NewFromString(candidates[i].Amount)
		if err != nil {
			return nil, fmt.Errorf("shipping: bad rate amount %q: %w", candidates[i].Amount, err)
		}
		if amount.LessThan(cheapestAmount) {
			cheapest = &candidates[i]
			cheapestAmount = amount
		}
	}
	return cheapest, nil
}

func (c *Client) purchaseTransaction(ctx context.Context, rateID string) (*transactionResponse, error) {
	payload := map[string]any{
		"rate":            rateID,
		"label_file_type": "PDF_4x6",
		"async":           false,
	}

	var tx transactionResponse
	if err := c.post(ctx, "/transactions/", payload, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("shipping: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("shipping: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "ShippoToken "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response", ErrUnavailable)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: provider returned status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("shipping: provider rejected request with status %d: %s", resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("shipping: failed to decode response: %w", err)
	}
	return nil
}

func validateSender(s Address) error {
	if s.Phone == "" || s.Email == "" {
		return fmt.Errorf("%w: phone and email are required", ErrSenderIncomplete)
	}
	if s.Street1 == "" || s.City == "" || s.Zip == "" {
		return fmt.Errorf("%w: street, city and zip are required", ErrSenderIncomplete)
	}
	return nil
}

func recipientComplete(a Address) bool {
	return a.Street1 != "" && a.City != "" && a.State != "" && a.Zip != "" && a.Country != ""
}

// syntheticTracking derives a stable sandbox tracking number from the
// transaction id. It carries no real-world semantics.
func syntheticTracking(transactionID string) string {
	sum := sha256.Sum256([]byte(transactionID))
	return "TEST-" + strings.ToUpper(hex.EncodeToString(sum[:6]))
}
