package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"casefile/internal/llm"
)

func TestCompleteSendsChatPayload(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"resultado"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{
		EndpointURL: srv.URL,
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
	})

	text, err := c.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{
			llm.Text(llm.RoleSystem, "seja objetivo"),
			llm.Text(llm.RoleUser, "analise isto"),
		},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "resultado" {
		t.Fatalf("unexpected completion %q", text)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPayload["model"] != "gpt-4o-mini" {
		t.Fatalf("expected model gpt-4o-mini, got %#v", gotPayload["model"])
	}
	if gotPayload["max_tokens"] != float64(256) {
		t.Fatalf("expected max_tokens 256, got %#v", gotPayload["max_tokens"])
	}
	msgs, ok := gotPayload["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %#v", gotPayload["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "seja objetivo" {
		t.Fatalf("unexpected first message %#v", first)
	}
}

func TestCompleteImagePartsEncodeAsArray(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{EndpointURL: srv.URL, APIKey: "sk-test", Model: "m"})
	_, err := c.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Parts: []llm.Part{
				{Text: "extraia o texto da imagem"},
				{ImageURL: "data:image/jpeg;base64,AAAA"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	msgs := gotPayload["messages"].([]any)
	content, ok := msgs[0].(map[string]any)["content"].([]any)
	if !ok || len(content) != 2 {
		t.Fatalf("expected typed-parts content, got %#v", msgs[0])
	}
	imgPart := content[1].(map[string]any)
	if imgPart["type"] != "image_url" {
		t.Fatalf("expected image_url part, got %#v", imgPart)
	}
}

func TestCompleteEmptyKeyFailsWithoutNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(Config{EndpointURL: srv.URL, Model: "m"})
	_, err := c.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{llm.Text(llm.RoleUser, "oi")},
	})
	if !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if called {
		t.Fatalf("no request must be sent when the key is empty")
	}
}

func TestCompleteNon2xxIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Config{EndpointURL: srv.URL, APIKey: "sk-test", Model: "m"})
	_, err := c.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{llm.Text(llm.RoleUser, "oi")},
	})

	var te *llm.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", te.Status)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := New(Config{EndpointURL: srv.URL, APIKey: "sk-test", Model: "m"})
	if _, err := c.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{llm.Text(llm.RoleUser, "oi")},
	}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
