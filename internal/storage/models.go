package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// SettingsKey is the single fixed key under which the API settings record
// lives, mirroring the one-JSON-object layout of the original store.
const SettingsKey = "api_settings"

const (
	KindDocument = "document"
	KindImage    = "image"
	KindAudio    = "audio"
	KindGraph    = "graph"
	KindReport   = "report"
)

// Record is one completed analysis for a file within a case. At most one
// record exists per (case_id, filename, kind); reprocessing a file replaces
// the previous record wholesale.
type Record struct {
	ID          string
	CaseID      string
	Filename    string
	Kind        string
	PayloadJSON string
	ProcessedAt time.Time
}

// Backend abstracts the persistence layer so the SQL store and the redis
// store are interchangeable.
type Backend interface {
	GetSettings(ctx context.Context) (string, error)
	PutSettings(ctx context.Context, raw string) error

	UpsertRecord(ctx context.Context, rec Record) error
	GetRecord(ctx context.Context, caseID, filename, kind string) (Record, error)
	ListRecords(ctx context.Context, caseID string) ([]Record, error)
	DeleteCaseRecords(ctx context.Context, caseID string) (int64, error)
	Clear(ctx context.Context) error

	Close() error
}
