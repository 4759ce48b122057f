package notify

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

const emailBaseURL = "https://api.mailprovider.io/v1"

// EmailClient posts template dispatch requests to the transactional-email
// provider. Rendering the template body is the provider's job.
type EmailClient struct {
	apiKey    string
	baseURL   string
	fromEmail string
	fromName  string
	http      *http.Client
}

func NewEmailClient(apiKey, fromEmail, fromName string) *EmailClient {
	return &EmailClient{
		apiKey:    apiKey,
		baseURL:   emailBaseURL,
		fromEmail: fromEmail,
		fromName:  fromName,
		http:      &http.Client{Timeout: emailTimeout},
	}
}

// NewEmailClientWithBaseURL is used by tests to point the client at a stub
// server.
func NewEmailClientWithBaseURL(apiKey, fromEmail, fromName, baseURL string) *EmailClient {
	c := NewEmailClient(apiKey, fromEmail, fromName)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Send delivers one templated email.
func (c *EmailClient) Send(ctx context.Context, msg Email) error {
	payload := map[string]any{
		"from":     map[string]string{"email": c.fromEmail, "name": c.fromName},
		"to":       msg.To,
		"template": msg.Template,
		"data":     msg.Data,
		"sent_at":  time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: failed to encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: failed to build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify: email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify: email provider returned status %d: %s", resp.StatusCode, raw)
	}
	return nil
}
