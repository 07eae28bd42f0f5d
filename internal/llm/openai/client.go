// Package openai implements the chat side of the gateway against any
// OpenAI-chat-compatible endpoint. One request per call: the contract has no
// retry, no backoff, and no timeout beyond the injected client's.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"casefile/internal/llm"
)

type Config struct {
	EndpointURL string
	APIKey      string
	Model       string
	Temperature float64
	TopP        float64
	HTTPClient  *http.Client
}

type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.TopP <= 0 {
		cfg.TopP = 0.95
	}
	return &Client{cfg: cfg}
}

var _ llm.Completer = (*Client)(nil)

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", llm.ErrNotConfigured
	}

	body, err := c.buildPayload(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return "", &llm.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &llm.TransportError{Status: resp.StatusCode}
	}

	return parseChatCompletion(respBody)
}

func (c *Client) buildPayload(req llm.Request) ([]byte, error) {
	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{
			"role":    m.Role,
			"content": encodeContent(m.Parts),
		})
	}

	payload := map[string]any{
		"model":       c.cfg.Model,
		"messages":    messages,
		"temperature": c.cfg.Temperature,
		"top_p":       c.cfg.TopP,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}
	return b, nil
}

// encodeContent renders a single text part as a plain string and anything
// else as the typed-parts array form of the chat completions API.
func encodeContent(parts []llm.Part) any {
	if len(parts) == 1 && parts[0].ImageURL == "" {
		return parts[0].Text
	}
	out := make([]map[string]any, 0, len(parts))
	for _, p := range parts {
		if p.ImageURL != "" {
			out = append(out, map[string]any{
				"type":      "image_url",
				"image_url": map[string]string{"url": p.ImageURL},
			})
			continue
		}
		out = append(out, map[string]any{"type": "text", "text": p.Text})
	}
	return out
}

func parseChatCompletion(body []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in chat completion response")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("missing message content in chat completion response")
	}
	return content, nil
}
