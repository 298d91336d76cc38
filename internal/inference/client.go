package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docsign/internal/config"
)

var (
	// ErrConfigurationMissing means no API key or model is configured in the
	// settings store. Handlers surface this as an actionable message, never a
	// generic 500.
	ErrConfigurationMissing = errors.New("inference provider is not configured")
	// ErrAuthFailure means the remote API rejected the credentials.
	ErrAuthFailure = errors.New("inference provider rejected the API key")
	// ErrRateLimited means the remote API throttled the request.
	ErrRateLimited = errors.New("inference provider rate limit exceeded")
	// ErrPayloadTooLarge means the request body exceeded the provider limit.
	ErrPayloadTooLarge = errors.New("inference request payload too large")
)

// ModelConfig carries the per-request credentials and model selection. The
// caller resolves it from the settings store once per request; the client
// never reaches into ambient state.
type ModelConfig struct {
	APIKey  string
	ModelID string
}

// Validate reports ErrConfigurationMissing when the config is unusable.
func (c ModelConfig) Validate() error {
	if c.APIKey == "" || c.ModelID == "" {
		return ErrConfigurationMissing
	}
	return nil
}

const summarySystemPrompt = "You are a contract analyst. Summarize the " +
	"following contract text in a short structured description: parties, " +
	"subject matter, key obligations, and notable deadlines. Answer in the " +
	"language of the document."

const transcribePrompt = "Transcribe all text visible in this image. " +
	"Return only the transcribed text, without commentary."

// Client talks to an OpenAI-compatible chat-completions endpoint. It is a
// thin, retryless client; callers own any fallback policy.
type Client struct {
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

// New creates an inference client from config.
func New(cfg config.InferenceConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Transcribe sends a page image to the vision model and returns whatever text
// comes back. Single attempt, no retries; the extraction engine treats any
// error as "no text" so one bad page never aborts a document.
func (c *Client) Transcribe(ctx context.Context, image []byte, mc ModelConfig) (string, error) {
	if err := mc.Validate(); err != nil {
		return "", err
	}
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	req := chatRequest{
		Model: mc.ModelID,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: transcribePrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
				},
			},
		},
		MaxTokens: c.maxTokens,
	}
	return c.complete(ctx, req, mc.APIKey)
}

// Summarize asks the language model for a structured summary of extracted text.
func (c *Client) Summarize(ctx context.Context, text string, mc ModelConfig) (string, error) {
	if err := mc.Validate(); err != nil {
		return "", err
	}
	req := chatRequest{
		Model: mc.ModelID,
		Messages: []chatMessage{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens: c.maxTokens,
	}
	return c.complete(ctx, req, mc.APIKey)
}

func (c *Client) complete(ctx context.Context, req chatRequest, apiKey string) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrAuthFailure
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	case http.StatusRequestEntityTooLarge:
		return "", ErrPayloadTooLarge
	default:
		return "", fmt.Errorf("inference API returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("inference API error: %s", parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("inference API returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
