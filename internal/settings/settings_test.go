package settings

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"casefile/internal/crypto"
	"casefile/internal/storage"
)

// memBackend is an in-memory storage.Backend for exercising the store
// without a database.
type memBackend struct {
	settings string
	hasValue bool
	records  map[string]storage.Record
}

func newMemBackend() *memBackend {
	return &memBackend{records: map[string]storage.Record{}}
}

func (m *memBackend) GetSettings(context.Context) (string, error) {
	if !m.hasValue {
		return "", storage.ErrNotFound
	}
	return m.settings, nil
}

func (m *memBackend) PutSettings(_ context.Context, raw string) error {
	m.settings = raw
	m.hasValue = true
	return nil
}

func (m *memBackend) UpsertRecord(_ context.Context, rec storage.Record) error {
	m.records[rec.CaseID+"|"+rec.Filename+"|"+rec.Kind] = rec
	return nil
}

func (m *memBackend) GetRecord(_ context.Context, caseID, filename, kind string) (storage.Record, error) {
	rec, ok := m.records[caseID+"|"+filename+"|"+kind]
	if !ok {
		return storage.Record{}, storage.ErrNotFound
	}
	return rec, nil
}

func (m *memBackend) ListRecords(_ context.Context, caseID string) ([]storage.Record, error) {
	var out []storage.Record
	for _, rec := range m.records {
		if rec.CaseID == caseID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memBackend) DeleteCaseRecords(_ context.Context, caseID string) (int64, error) {
	var n int64
	for key, rec := range m.records {
		if rec.CaseID == caseID {
			delete(m.records, key)
			n++
		}
	}
	return n, nil
}

func (m *memBackend) Clear(context.Context) error {
	m.settings = ""
	m.hasValue = false
	m.records = map[string]storage.Record{}
	return nil
}

func (m *memBackend) Close() error { return nil }

func testSealer(t *testing.T) *crypto.Sealer {
	t.Helper()
	sealer, err := crypto.NewSealer("k1", map[string][]byte{
		"k1": bytes.Repeat([]byte{0x17}, 32),
	})
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	return sealer
}

func newTestStore(t *testing.T) (*Store, *memBackend) {
	t.Helper()
	backend := newMemBackend()
	return NewStore(backend, testSealer(t), zerolog.Nop()), backend
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	store, _ := newTestStore(t)
	got := store.Load(context.Background())
	if got != Defaults() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestLoadCorruptReturnsDefaults(t *testing.T) {
	store, backend := newTestStore(t)
	backend.settings = "{not json"
	backend.hasValue = true
	got := store.Load(context.Background())
	if got != Defaults() {
		t.Fatalf("expected defaults for corrupt record, got %+v", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	in := Settings{
		APIKey:                   "sk-test-123",
		ChatEndpointURL:          "https://llm.internal/v1/chat/completions",
		ChatModel:                "local-model",
		TranscriptionEndpointURL: "https://llm.internal/v1/audio/transcriptions",
		TranscriptionModel:       "local-whisper",
		Language:                 "en",
		MockMode:                 true,
	}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	// The key must never appear in cleartext at rest.
	if strings.Contains(backend.settings, "sk-test-123") {
		t.Fatalf("api key stored in cleartext: %s", backend.settings)
	}

	got := store.Load(ctx)
	if got != in {
		t.Fatalf("round trip mismatch:\n in: %+v\nout: %+v", in, got)
	}
}

func TestSaveOverwritesWholesale(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := Defaults()
	first.APIKey = "sk-first"
	first.MockMode = true
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := Defaults()
	second.ChatModel = "gpt-4o"
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got := store.Load(ctx)
	if got.APIKey != "" {
		t.Fatalf("stale api key survived overwrite: %q", got.APIKey)
	}
	if got.MockMode {
		t.Fatal("stale mock_mode survived overwrite")
	}
	if got.ChatModel != "gpt-4o" {
		t.Fatalf("chat model = %q, want gpt-4o", got.ChatModel)
	}
}

func TestLoadBackfillsEmptyFields(t *testing.T) {
	store, backend := newTestStore(t)
	backend.settings = `{"chat_model":"gpt-4o","language":""}`
	backend.hasValue = true

	got := store.Load(context.Background())
	def := Defaults()
	if got.ChatModel != "gpt-4o" {
		t.Fatalf("chat model = %q", got.ChatModel)
	}
	if got.ChatEndpointURL != def.ChatEndpointURL {
		t.Fatalf("chat endpoint not backfilled: %q", got.ChatEndpointURL)
	}
	if got.Language != def.Language {
		t.Fatalf("language not backfilled: %q", got.Language)
	}
}

func TestLoadUnreadableKeyTreatedAsUnset(t *testing.T) {
	store, backend := newTestStore(t)
	backend.settings = `{"sealed_api_key":"{\"key_id\":\"gone\",\"nonce\":\"AA==\",\"ciphertext\":\"AA==\"}","chat_model":"gpt-4o-mini"}`
	backend.hasValue = true

	got := store.Load(context.Background())
	if got.APIKey != "" {
		t.Fatalf("expected empty api key, got %q", got.APIKey)
	}
	if got.ChatModel != "gpt-4o-mini" {
		t.Fatalf("rest of record should survive, got %+v", got)
	}
}
