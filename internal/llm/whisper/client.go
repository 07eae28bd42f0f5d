// Package whisper implements the transcription side of the gateway against
// any Whisper-compatible endpoint (multipart form, verbose_json response).
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"casefile/internal/llm"
)

type Config struct {
	EndpointURL string
	APIKey      string
	Model       string
	HTTPClient  *http.Client
}

type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{cfg: cfg}
}

var _ llm.Transcriber = (*Client)(nil)

func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (llm.Transcription, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return llm.Transcription{}, llm.ErrNotConfigured
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return llm.Transcription{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return llm.Transcription{}, fmt.Errorf("copy audio: %w", err)
	}

	_ = writer.WriteField("model", c.cfg.Model)
	_ = writer.WriteField("response_format", "verbose_json")
	if strings.TrimSpace(language) != "" {
		_ = writer.WriteField("language", language)
	}
	_ = writer.WriteField("timestamp_granularities[]", "segment")
	if err := writer.Close(); err != nil {
		return llm.Transcription{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EndpointURL, &buf)
	if err != nil {
		return llm.Transcription{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return llm.Transcription{}, &llm.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return llm.Transcription{}, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return llm.Transcription{}, &llm.TransportError{Status: resp.StatusCode}
	}

	var out llm.Transcription
	if err := json.Unmarshal(respBody, &out); err != nil {
		return llm.Transcription{}, fmt.Errorf("decode transcription response: %w", err)
	}
	return out, nil
}
