// Package redisstore is the key-value alternative to the SQL store. Records
// for a case live in one hash keyed by case id, with one field per
// (filename, kind) pair, so upsert semantics fall out of HSET.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"casefile/internal/storage"
)

type Store struct {
	redis  *redis.Client
	prefix string
}

var _ storage.Backend = (*Store)(nil)

func New(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "casefile"
	}
	return &Store{redis: rdb, prefix: prefix}
}

type storedRecord struct {
	ID          string    `json:"id"`
	CaseID      string    `json:"case_id"`
	Filename    string    `json:"filename"`
	Kind        string    `json:"kind"`
	PayloadJSON string    `json:"payload_json"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (s *Store) GetSettings(ctx context.Context) (string, error) {
	raw, err := s.redis.Get(ctx, s.settingsKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get settings: %w", err)
	}
	return raw, nil
}

func (s *Store) PutSettings(ctx context.Context, raw string) error {
	if err := s.redis.Set(ctx, s.settingsKey(), raw, 0).Err(); err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}

func (s *Store) UpsertRecord(ctx context.Context, rec storage.Record) error {
	if rec.PayloadJSON == "" {
		rec.PayloadJSON = "{}"
	}
	b, err := json.Marshal(storedRecord(rec))
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.redis.HSet(ctx, s.caseKey(rec.CaseID), recordField(rec.Filename, rec.Kind), b).Err(); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, caseID, filename, kind string) (storage.Record, error) {
	raw, err := s.redis.HGet(ctx, s.caseKey(caseID), recordField(filename, kind)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return storage.Record{}, storage.ErrNotFound
		}
		return storage.Record{}, fmt.Errorf("get record: %w", err)
	}
	var sr storedRecord
	if err := json.Unmarshal([]byte(raw), &sr); err != nil {
		return storage.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return storage.Record(sr), nil
}

func (s *Store) ListRecords(ctx context.Context, caseID string) ([]storage.Record, error) {
	vals, err := s.redis.HGetAll(ctx, s.caseKey(caseID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]storage.Record, 0, len(vals))
	for _, raw := range vals {
		var sr storedRecord
		if err := json.Unmarshal([]byte(raw), &sr); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		out = append(out, storage.Record(sr))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ProcessedAt.Equal(out[j].ProcessedAt) {
			return out[i].ProcessedAt.Before(out[j].ProcessedAt)
		}
		return out[i].Filename < out[j].Filename
	})
	return out, nil
}

func (s *Store) DeleteCaseRecords(ctx context.Context, caseID string) (int64, error) {
	n, err := s.redis.HLen(ctx, s.caseKey(caseID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count case records: %w", err)
	}
	if err := s.redis.Del(ctx, s.caseKey(caseID)).Err(); err != nil {
		return 0, fmt.Errorf("delete case records: %w", err)
	}
	return n, nil
}

func (s *Store) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+":*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan keys: %w", err)
		}
		if len(keys) > 0 {
			if err := s.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *Store) Close() error {
	return s.redis.Close()
}

func (s *Store) settingsKey() string {
	return s.prefix + ":settings"
}

func (s *Store) caseKey(caseID string) string {
	return fmt.Sprintf("%s:records:%s", s.prefix, caseID)
}

func recordField(filename, kind string) string {
	return filename + "|" + kind
}
