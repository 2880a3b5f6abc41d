// Package genai is a thin client for a generative-language "generateContent"
// endpoint. It sends one request per call: no retry, no streaming, no backoff.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public generative-language API host.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel matches the model the web client used.
	DefaultModel = "gemini-1.5-flash"

	// apiKeyPrefix and apiKeyMinLen describe the provider's key shape.
	apiKeyPrefix = "AIzaSy"
	apiKeyMinLen = 31
)

// Role names the endpoint understands. The assistant side is "model" on the
// wire even though the rest of the app calls it "assistant".
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one entry of the transcript sent to the endpoint.
type Turn struct {
	Role string
	Text string
}

// GenerationConfig tunes the completion request.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Client calls the generateContent endpoint for a fixed model.
type Client struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Generation GenerationConfig

	// limiter spaces out calls so a fast typist cannot burn through quota.
	limiter *rate.Limiter
}

// NewClient creates a client with sane defaults: 30s request timeout and at
// most one request per second with a small burst.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Model:   model,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Generation: GenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 2048,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// ValidAPIKey reports whether key matches the provider's key shape.
// It deliberately checks shape only; the endpoint is the real authority.
func ValidAPIKey(key string) bool {
	return strings.HasPrefix(key, apiKeyPrefix) && len(key) >= apiKeyMinLen
}

// Wire types for the generateContent request/response.

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wireRequest struct {
	Contents          []wireContent    `json:"contents"`
	SystemInstruction *wireContent     `json:"systemInstruction,omitempty"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

type wireResponse struct {
	Candidates []struct {
		Content struct {
			Parts []wirePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the transcript plus the system instruction and returns the
// first candidate's first text part. The API key travels only as the key
// query parameter and is never logged.
func (c *Client) Complete(ctx context.Context, apiKey string, transcript []Turn, systemInstruction string) (string, error) {
	if apiKey == "" {
		return "", ErrNoCredential
	}
	if !ValidAPIKey(apiKey) {
		return "", ErrInvalidAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := wireRequest{
		Contents:         make([]wireContent, 0, len(transcript)),
		GenerationConfig: c.Generation,
	}
	for _, turn := range transcript {
		reqBody.Contents = append(reqBody.Contents, wireContent{
			Role:  turn.Role,
			Parts: []wirePart{{Text: turn.Text}},
		})
	}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &wireContent{
			Parts: []wirePart{{Text: systemInstruction}},
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.BaseURL, c.Model, url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var decoded wireResponse
		msg := ""
		if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return "", &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	var decoded wireResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", ErrMalformed
	}

	text := decoded.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", ErrMalformed
	}
	return text, nil
}
