// Package analysis holds the domain-specific callers: each one builds a
// prompt for its extraction task, runs it through the gateway, parses the
// reply through the salvage tiers, and upserts the resulting record for its
// (case, filename) pair.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"casefile/internal/gateway"
	"casefile/internal/metrics"
	"casefile/internal/salvage"
	"casefile/internal/storage"
)

// ErrNoRecords is returned when a report is requested for a case with no
// stored analyses.
var ErrNoRecords = errors.New("no analysis records for case")

type Service struct {
	gateway *gateway.Gateway
	store   storage.Backend
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

type Config struct {
	Gateway *gateway.Gateway
	Store   storage.Backend
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

func New(cfg Config) *Service {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global()
	}
	return &Service{
		gateway: cfg.Gateway,
		store:   cfg.Store,
		logger:  cfg.Logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

func (s *Service) record(caseID, filename, kind string, payload any) (storage.Record, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return storage.Record{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return storage.Record{
		ID:          s.newID(),
		CaseID:      caseID,
		Filename:    filename,
		Kind:        kind,
		PayloadJSON: string(b),
		ProcessedAt: s.now(),
	}, nil
}

func (s *Service) finish(ctx context.Context, rec storage.Record, outcome salvage.Outcome) (storage.Record, error) {
	if err := s.store.UpsertRecord(ctx, rec); err != nil {
		return storage.Record{}, err
	}
	s.metrics.Analyses.WithLabelValues(rec.Kind).Inc()
	if outcome != "" {
		s.metrics.ParseOutcomes.WithLabelValues(string(outcome)).Inc()
	}
	s.logger.Info().
		Str("case_id", rec.CaseID).
		Str("filename", rec.Filename).
		Str("kind", rec.Kind).
		Str("outcome", string(outcome)).
		Msg("analysis stored")
	return rec, nil
}
