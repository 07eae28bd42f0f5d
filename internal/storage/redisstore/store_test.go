package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"casefile/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "casefile_test")
}

func TestSettingsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.GetSettings(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.PutSettings(ctx, `{"mock_mode":true}`); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	raw, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if raw != `{"mock_mode":true}` {
		t.Fatalf("unexpected settings %q", raw)
	}
}

func TestUpsertRecordReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := storage.Record{
		ID:          "id-1",
		CaseID:      "case-1",
		Filename:    "bo-123.pdf",
		Kind:        storage.KindDocument,
		PayloadJSON: `{"summary":"first"}`,
		ProcessedAt: time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC),
	}
	if err := store.UpsertRecord(ctx, first); err != nil {
		t.Fatalf("upsert first: %v", err)
	}

	second := first
	second.ID = "id-2"
	second.PayloadJSON = `{"summary":"second"}`
	if err := store.UpsertRecord(ctx, second); err != nil {
		t.Fatalf("upsert second: %v", err)
	}

	list, err := store.ListRecords(ctx, "case-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one record after reprocessing, got %d", len(list))
	}
	if list[0].ID != "id-2" {
		t.Fatalf("record not replaced: %+v", list[0])
	}
}

func TestGetRecord(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := storage.Record{
		ID:          "id-1",
		CaseID:      "case-1",
		Filename:    "scene.jpg",
		Kind:        storage.KindImage,
		PayloadJSON: `{"plates":["ABC1234"]}`,
		ProcessedAt: time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC),
	}
	if err := store.UpsertRecord(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetRecord(ctx, "case-1", "scene.jpg", storage.KindImage)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got != rec {
		t.Fatalf("record mismatch:\n in: %+v\nout: %+v", rec, got)
	}

	if _, err := store.GetRecord(ctx, "case-1", "scene.jpg", storage.KindDocument); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other kind, got %v", err)
	}
}

func TestListRecordsOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)

	for _, rec := range []storage.Record{
		{ID: "c", CaseID: "case-1", Filename: "c.jpg", Kind: storage.KindImage, PayloadJSON: "{}", ProcessedAt: base.Add(time.Hour)},
		{ID: "b", CaseID: "case-1", Filename: "b.pdf", Kind: storage.KindDocument, PayloadJSON: "{}", ProcessedAt: base},
		{ID: "a", CaseID: "case-1", Filename: "a.pdf", Kind: storage.KindDocument, PayloadJSON: "{}", ProcessedAt: base},
	} {
		if err := store.UpsertRecord(ctx, rec); err != nil {
			t.Fatalf("upsert %s: %v", rec.ID, err)
		}
	}

	list, err := store.ListRecords(ctx, "case-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 records, got %d", len(list))
	}
	// ProcessedAt first, filename breaks ties.
	if list[0].ID != "a" || list[1].ID != "b" || list[2].ID != "c" {
		t.Fatalf("records out of order: %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestDeleteCaseRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)

	for _, rec := range []storage.Record{
		{ID: "1", CaseID: "case-1", Filename: "a.pdf", Kind: storage.KindDocument, PayloadJSON: "{}", ProcessedAt: now},
		{ID: "2", CaseID: "case-1", Filename: "b.jpg", Kind: storage.KindImage, PayloadJSON: "{}", ProcessedAt: now},
		{ID: "3", CaseID: "case-2", Filename: "c.mp3", Kind: storage.KindAudio, PayloadJSON: "{}", ProcessedAt: now},
	} {
		if err := store.UpsertRecord(ctx, rec); err != nil {
			t.Fatalf("upsert %s: %v", rec.ID, err)
		}
	}

	n, err := store.DeleteCaseRecords(ctx, "case-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted %d records, want 2", n)
	}

	left, err := store.ListRecords(ctx, "case-2")
	if err != nil {
		t.Fatalf("list survivor: %v", err)
	}
	if len(left) != 1 {
		t.Fatalf("other case should be untouched, got %d records", len(left))
	}
}

func TestClearDropsPrefixedKeysOnly(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := New(rdb, "casefile_test")
	ctx := context.Background()

	if err := store.PutSettings(ctx, "{}"); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	rec := storage.Record{ID: "1", CaseID: "case-1", Filename: "a.pdf", Kind: storage.KindDocument, ProcessedAt: time.Now().UTC()}
	if err := store.UpsertRecord(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := rdb.Set(ctx, "other:key", "keep", 0).Err(); err != nil {
		t.Fatalf("set unrelated key: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, err := store.GetSettings(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("settings should be gone, got %v", err)
	}
	list, err := store.ListRecords(ctx, "case-1")
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("records should be gone, got %d", len(list))
	}
	if val, err := rdb.Get(ctx, "other:key").Result(); err != nil || val != "keep" {
		t.Fatalf("unrelated key touched: %q %v", val, err)
	}
}
