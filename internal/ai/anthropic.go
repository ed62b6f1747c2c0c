package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/launchkit/launchkit/internal/pkg/httpretry"
)

// AnthropicClient calls the Anthropic Messages API directly over HTTP.
// Requests go through a retrying client so transient 429s and 5xxs from the
// API do not surface as generation failures.
type AnthropicClient struct {
	apiKey     string
	model      string
	httpClient httpretry.HTTPDoer
}

// NewAnthropicClient returns a client for the Anthropic Messages API, or nil
// if no API key is configured.
func NewAnthropicClient(apiKey, model string, timeout time.Duration) *AnthropicClient {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 3),
	}
}

// Name implements TextGenerator.
func (c *AnthropicClient) Name() string { return "anthropic" }

// Generate implements TextGenerator.
func (c *AnthropicClient) Generate(ctx context.Context, genReq Request) (string, error) {
	maxTokens := genReq.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	messages := make([]map[string]string, 0, len(genReq.History)+1)
	for _, m := range genReq.History {
		messages = append(messages, map[string]string{"role": m.Role, "content": m.Content})
	}
	messages = append(messages, map[string]string{"role": "user", "content": genReq.Prompt})

	reqBody := map[string]interface{}{
		"model":      c.model,
		"max_tokens": maxTokens,
		"messages":   messages,
	}
	if genReq.System != "" {
		reqBody["system"] = genReq.System
	}
	if genReq.Temperature > 0 {
		reqBody["temperature"] = genReq.Temperature
	}

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("Anthropic error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var anthropicResp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &anthropicResp); err != nil {
		return "", fmt.Errorf("failed to parse Anthropic response: %w", err)
	}
	if len(anthropicResp.Content) == 0 {
		return "", fmt.Errorf("no content in Anthropic response")
	}

	return anthropicResp.Content[0].Text, nil
}
