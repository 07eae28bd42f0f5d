// Package settings manages the single API configuration record. Reads never
// fail: a missing, corrupt, or unreadable record yields the hard-coded
// defaults. Writes replace the record wholesale.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"casefile/internal/crypto"
	"casefile/internal/storage"
)

// Settings is the persisted API configuration record.
type Settings struct {
	APIKey                   string `json:"api_key"`
	ChatEndpointURL          string `json:"chat_endpoint_url"`
	ChatModel                string `json:"chat_model"`
	TranscriptionEndpointURL string `json:"transcription_endpoint_url"`
	TranscriptionModel       string `json:"transcription_model"`
	Language                 string `json:"language"`
	MockMode                 bool   `json:"mock_mode"`
}

func Defaults() Settings {
	return Settings{
		APIKey:                   "",
		ChatEndpointURL:          "https://api.openai.com/v1/chat/completions",
		ChatModel:                "gpt-4o-mini",
		TranscriptionEndpointURL: "https://api.openai.com/v1/audio/transcriptions",
		TranscriptionModel:       "whisper-1",
		Language:                 "pt",
		MockMode:                 false,
	}
}

// Provider hands the current settings to callers. Injected rather than read
// from a global so tests can pin a fixed configuration.
type Provider interface {
	Current(ctx context.Context) Settings
}

// Static is a fixed-value Provider for tests and one-shot tools.
type Static Settings

func (s Static) Current(context.Context) Settings { return Settings(s) }

type Store struct {
	backend storage.Backend
	sealer  *crypto.Sealer
	logger  zerolog.Logger
}

var _ Provider = (*Store)(nil)

func NewStore(backend storage.Backend, sealer *crypto.Sealer, logger zerolog.Logger) *Store {
	return &Store{backend: backend, sealer: sealer, logger: logger}
}

// stored is the at-rest shape: the API key is replaced by a sealed envelope.
type stored struct {
	SealedAPIKey             string `json:"sealed_api_key,omitempty"`
	ChatEndpointURL          string `json:"chat_endpoint_url"`
	ChatModel                string `json:"chat_model"`
	TranscriptionEndpointURL string `json:"transcription_endpoint_url"`
	TranscriptionModel       string `json:"transcription_model"`
	Language                 string `json:"language"`
	MockMode                 bool   `json:"mock_mode"`
}

// Load returns the stored settings, or the defaults when the record is
// missing or unreadable. It never returns an error.
func (s *Store) Load(ctx context.Context) Settings {
	raw, err := s.backend.GetSettings(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("settings read failed, using defaults")
		}
		return Defaults()
	}

	var st stored
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.logger.Warn().Err(err).Msg("settings record is corrupt, using defaults")
		return Defaults()
	}

	out := Settings{
		ChatEndpointURL:          st.ChatEndpointURL,
		ChatModel:                st.ChatModel,
		TranscriptionEndpointURL: st.TranscriptionEndpointURL,
		TranscriptionModel:       st.TranscriptionModel,
		Language:                 st.Language,
		MockMode:                 st.MockMode,
	}
	if strings.TrimSpace(st.SealedAPIKey) != "" {
		key, err := s.sealer.OpenString(st.SealedAPIKey)
		if err != nil {
			s.logger.Warn().Err(err).Msg("sealed api key is unreadable, treating as unset")
		} else {
			out.APIKey = key
		}
	}
	return fillDefaults(out)
}

// Save overwrites the stored record unconditionally. The API key is sealed
// with the current master key before it touches the backend.
func (s *Store) Save(ctx context.Context, cfg Settings) error {
	st := stored{
		ChatEndpointURL:          cfg.ChatEndpointURL,
		ChatModel:                cfg.ChatModel,
		TranscriptionEndpointURL: cfg.TranscriptionEndpointURL,
		TranscriptionModel:       cfg.TranscriptionModel,
		Language:                 cfg.Language,
		MockMode:                 cfg.MockMode,
	}
	if strings.TrimSpace(cfg.APIKey) != "" {
		sealed, err := s.sealer.SealString(cfg.APIKey)
		if err != nil {
			return fmt.Errorf("seal api key: %w", err)
		}
		st.SealedAPIKey = sealed
	}

	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.backend.PutSettings(ctx, string(b)); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

func (s *Store) Current(ctx context.Context) Settings {
	return s.Load(ctx)
}

// fillDefaults backfills endpoint URLs and model ids a stored record left
// empty, so a partially hand-edited record still resolves to usable values.
func fillDefaults(cfg Settings) Settings {
	def := Defaults()
	if strings.TrimSpace(cfg.ChatEndpointURL) == "" {
		cfg.ChatEndpointURL = def.ChatEndpointURL
	}
	if strings.TrimSpace(cfg.ChatModel) == "" {
		cfg.ChatModel = def.ChatModel
	}
	if strings.TrimSpace(cfg.TranscriptionEndpointURL) == "" {
		cfg.TranscriptionEndpointURL = def.TranscriptionEndpointURL
	}
	if strings.TrimSpace(cfg.TranscriptionModel) == "" {
		cfg.TranscriptionModel = def.TranscriptionModel
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = def.Language
	}
	return cfg
}
