// Package gemini is the response client for the generateContent endpoint.
// Each call issues exactly one request; there are no retries.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/longkey1/llmchat/internal/attachment"
	"github.com/longkey1/llmchat/internal/logger"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// FallbackText replaces a successful response that carries no text
	FallbackText = "Sorry, no response could be generated."

	// GenericFailure is used when an error response has no message
	GenericFailure = "Failed to get a response from the API"
)

// GenerateRequest represents the request body for the generate content API
type GenerateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Content represents a content turn
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is either a text segment or an inline data segment
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries a base64 payload and its media type
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// GenerationConfig holds the generation limits
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GenerateResponse represents the response body. Either Candidates or
// Error is populated.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
	Error      *ErrorBody  `json:"error,omitempty"`
}

// Candidate represents a candidate response
type Candidate struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

// ErrorBody is the error object of a failed call
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// APIError is returned when the endpoint answers with a non-success status
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Prompt is everything needed for one generation call
type Prompt struct {
	Model        string
	Instructions string
	Message      string
	Attachment   *attachment.Inline
	Temperature  float64
	MaxTokens    int
	APIKey       string
}

// Client talks to the generative language API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a new client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildRequest assembles the single content turn: the instructions and the
// message share one text part, the attachment (if any) follows as a second part.
func BuildRequest(p Prompt) GenerateRequest {
	text := p.Message
	if p.Instructions != "" {
		text = p.Instructions + "\n\n" + p.Message
	}

	parts := []Part{{Text: text}}
	if p.Attachment != nil {
		parts = append(parts, Part{
			InlineData: &InlineData{
				MimeType: p.Attachment.MediaType,
				Data:     p.Attachment.Data,
			},
		})
	}

	return GenerateRequest{
		Contents: []Content{{Parts: parts}},
		GenerationConfig: GenerationConfig{
			Temperature:     p.Temperature,
			MaxOutputTokens: p.MaxTokens,
		},
	}
}

// Generate sends the prompt and returns the first candidate's first text part.
// A success response without text yields FallbackText instead of an error.
func (c *Client) Generate(ctx context.Context, p Prompt) (string, error) {
	jsonData, err := json.Marshal(BuildRequest(p))
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?%s",
		c.baseURL, url.PathEscape(p.Model), url.Values{"key": {p.APIKey}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("sending generate request",
		"model", p.Model,
		"message_len", len(p.Message),
		"attachment", p.Attachment != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			// url.Error repeats the URL, which carries the key
			err = uerr.Err
		}
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	c.log.Debug("generate response received",
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", parseError(resp.StatusCode, body)
	}

	var result GenerateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	return extractText(result), nil
}

func parseError(status int, body []byte) error {
	var result GenerateResponse
	if err := json.Unmarshal(body, &result); err == nil && result.Error != nil && result.Error.Message != "" {
		return &APIError{StatusCode: status, Message: result.Error.Message}
	}
	return &APIError{StatusCode: status, Message: GenericFailure}
}

func extractText(result GenerateResponse) string {
	if len(result.Candidates) == 0 {
		return FallbackText
	}
	parts := result.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return FallbackText
	}
	return parts[0].Text
}

// ModelInfo represents information about an available model
type ModelInfo struct {
	ID          string
	Description string
}

// modelsResponse represents the response from the models endpoint
type modelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		DisplayName                string   `json:"displayName"`
		Description                string   `json:"description"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// ListModels returns the models that support generateContent, sorted by ID descending
func (c *Client) ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error) {
	endpoint := c.baseURL + "/models?" + url.Values{"key": {apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("failed to connect to API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp.StatusCode, body)
	}

	var result modelsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	models := make([]ModelInfo, 0, len(result.Models))
	for _, m := range result.Models {
		if !contains(m.SupportedGenerationMethods, "generateContent") {
			continue
		}
		description := m.Description
		if description == "" {
			description = m.DisplayName
		}
		models = append(models, ModelInfo{
			ID:          strings.TrimPrefix(m.Name, "models/"),
			Description: description,
		})
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID > models[j].ID
	})

	return models, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
