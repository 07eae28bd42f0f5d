package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ErrNotConfigured is returned when a completion is requested with an empty
// API key and mock mode off. Callers surface it instead of substituting data.
var ErrNotConfigured = errors.New("llm: api key is not configured")

// TransportError classifies non-2xx responses and network failures from
// either remote endpoint.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("llm: endpoint status %d", e.Status)
	}
	return fmt.Sprintf("llm: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Part is one element of a message's content: plain text or an image
// reference (data URL or remote URL).
type Part struct {
	Text     string
	ImageURL string
}

type Message struct {
	Role  string
	Parts []Part
}

func Text(role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}}
}

// PlainText concatenates the text parts of a message.
func (m Message) PlainText() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

type Request struct {
	Messages  []Message
	MaxTokens int
}

// LastUserText returns the text of the last user message, which mock mode
// keys its canned responses off.
func (r Request) LastUserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].PlainText()
		}
	}
	return ""
}

type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Transcription struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (Transcription, error)
}
