// Package gateway routes chat and transcription requests to the client the
// current settings call for: the real endpoints, or the canned mock pair
// when mock mode is on. Selection happens per call so a settings change
// takes effect without a restart.
package gateway

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"casefile/internal/llm"
	"casefile/internal/llm/mock"
	"casefile/internal/llm/openai"
	"casefile/internal/llm/whisper"
	"casefile/internal/metrics"
	"casefile/internal/settings"
)

type Gateway struct {
	settings   settings.Provider
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

type Config struct {
	Settings   settings.Provider
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

func New(cfg Config) *Gateway {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global()
	}
	return &Gateway{
		settings:   cfg.Settings,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		metrics:    m,
	}
}

// Complete sends one chat request and returns the raw completion text.
// Empty API key with mock mode off fails with llm.ErrNotConfigured; mock
// data is never substituted for a transport failure.
func (g *Gateway) Complete(ctx context.Context, req llm.Request) (string, error) {
	cfg := g.settings.Current(ctx)
	g.metrics.ChatRequests.Inc()

	text, err := g.completer(cfg).Complete(ctx, req)
	if err != nil {
		g.metrics.ChatFailures.Inc()
		return "", err
	}
	return text, nil
}

func (g *Gateway) Transcribe(ctx context.Context, audio io.Reader, filename string) (llm.Transcription, error) {
	cfg := g.settings.Current(ctx)
	g.metrics.Transcriptions.Inc()

	return g.transcriber(cfg).Transcribe(ctx, audio, filename, cfg.Language)
}

func (g *Gateway) completer(cfg settings.Settings) llm.Completer {
	if cfg.MockMode {
		return mock.NewCompleter()
	}
	return openai.New(openai.Config{
		EndpointURL: cfg.ChatEndpointURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.ChatModel,
		HTTPClient:  g.httpClient,
	})
}

func (g *Gateway) transcriber(cfg settings.Settings) llm.Transcriber {
	if cfg.MockMode {
		return mock.NewTranscriber()
	}
	return whisper.New(whisper.Config{
		EndpointURL: cfg.TranscriptionEndpointURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.TranscriptionModel,
		HTTPClient:  g.httpClient,
	})
}
