// Package mailer delivers one-time signup codes through an external webhook.
// The old client fired the request and discarded the outcome; this one
// reports delivery failure so the signup flow can tell the user.
package mailer

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

// Webhook posts {email, username, code} as JSON to a fixed automation URL.
type Webhook struct {
	URL        string
	HTTPClient *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL: strings.TrimSpace(url),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type codePayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Code     string `json:"code"`
}

// SendCode delivers a verification code to the account's email address.
func (w *Webhook) SendCode(ctx context.Context, email, username, code string) error {
	if w.URL == "" {
		return fmt.Errorf("mailer: no delivery webhook configured")
	}

	payload, err := json.Marshal(codePayload{
		Email:    email,
		Username: username,
		Code:     code,
	})
	if err != nil {
		return fmt.Errorf("mailer: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("mailer: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: failed to send code: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mailer: delivery endpoint returned HTTP %d", resp.StatusCode)
	}

	return nil
}
