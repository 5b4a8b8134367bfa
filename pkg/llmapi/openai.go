package llmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/refinery-ai/refinery/pkg/registry"
)

const (
	completionsPath = "/chat/completions"
	modelsPath      = "/models"
)

var _ Client = (*OpenAIClient)(nil)

// OpenAIClient talks to any OpenAI-compatible chat completions API (OpenAI
// itself, LM Studio, vLLM, Ollama's compat layer, ...). The zero HTTP client
// falls back to http.DefaultClient.
type OpenAIClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewOpenAIClient creates a client for the given provider's endpoint. The
// endpoint is expected to include the API version prefix (e.g.
// "http://localhost:1234/v1").
func NewOpenAIClient(p registry.Provider) *OpenAIClient {
	return &OpenAIClient{
		BaseURL: p.APIEndpoint,
		APIKey:  p.APIKey,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Send submits the prompt as a single user message and returns the
// assistant's reply text.
func (c *OpenAIClient) Send(ctx context.Context, prompt, model string, temperature float64) (string, error) {
	req := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if temperature != 0 {
		t := temperature
		req.Temperature = &t
	}

	var resp chatResponse
	if err := c.postJSON(ctx, completionsPath, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmapi: empty choices in response: %w", ErrBackend)
	}

	return resp.Choices[0].Message.Content, nil
}

// ListModels fetches the backend's model catalog.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, modelsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("llmapi: build request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("llmapi: %w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("llmapi: %w: status %d: %s", ErrBackend, resp.StatusCode, string(body))
	}

	var models modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("llmapi: %w: decode response: %v", ErrBackend, err)
	}

	ids := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		ids = append(ids, m.ID)
	}

	return ids, nil
}

func (c *OpenAIClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}

	return http.DefaultClient
}

// newRequest builds an *http.Request with base URL and bearer auth applied.
func (c *OpenAIClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	return req, nil
}

// postJSON marshals payload, POSTs it, checks for a 2xx status, and decodes
// the response body into dest.
func (c *OpenAIClient) postJSON(ctx context.Context, path string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("llmapi: marshal payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("llmapi: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req) //nolint:gosec // URL is built from trusted config, not user input
	if err != nil {
		return fmt.Errorf("llmapi: %w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("llmapi: %w: status %d: %s", ErrBackend, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("llmapi: %w: decode response: %v", ErrBackend, err)
	}

	return nil
}
