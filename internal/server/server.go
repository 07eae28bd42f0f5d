// Package server exposes the JSON API: settings, per-case analysis uploads,
// stored records, and report generation.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"casefile/internal/analysis"
	"casefile/internal/llm"
	"casefile/internal/settings"
	"casefile/internal/storage"
)

type Server struct {
	settings  *settings.Store
	analysis  *analysis.Service
	store     storage.Backend
	logger    zerolog.Logger
	maxUpload int64
}

type Config struct {
	Settings  *settings.Store
	Analysis  *analysis.Service
	Store     storage.Backend
	Logger    zerolog.Logger
	MaxUpload int64
}

func New(cfg Config) *Server {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = 32 << 20
	}
	return &Server{
		settings:  cfg.Settings,
		analysis:  cfg.Analysis,
		store:     cfg.Store,
		logger:    cfg.Logger,
		maxUpload: cfg.MaxUpload,
	}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/settings", s.logged(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.logged(s.handlePutSettings))
	mux.HandleFunc("POST /api/cases/{caseID}/documents", s.logged(s.handleDocument))
	mux.HandleFunc("POST /api/cases/{caseID}/images", s.logged(s.handleImage))
	mux.HandleFunc("POST /api/cases/{caseID}/audio", s.logged(s.handleAudio))
	mux.HandleFunc("POST /api/cases/{caseID}/links", s.logged(s.handleLinks))
	mux.HandleFunc("POST /api/cases/{caseID}/report", s.logged(s.handleReport))
	mux.HandleFunc("GET /api/cases/{caseID}/records", s.logged(s.handleListRecords))
	mux.HandleFunc("DELETE /api/cases/{caseID}/records", s.logged(s.handleDeleteRecords))
}

func (s *Server) logged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	}
}

// recordDTO is the wire form of a stored record, with the payload inlined
// as JSON rather than double-encoded.
type recordDTO struct {
	ID          string          `json:"id"`
	CaseID      string          `json:"case_id"`
	Filename    string          `json:"filename"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	ProcessedAt time.Time       `json:"processed_at"`
}

func toDTO(rec storage.Record) recordDTO {
	return recordDTO{
		ID:          rec.ID,
		CaseID:      rec.CaseID,
		Filename:    rec.Filename,
		Kind:        rec.Kind,
		Payload:     json.RawMessage(rec.PayloadJSON),
		ProcessedAt: rec.ProcessedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the gateway's typed errors onto HTTP statuses: missing
// configuration is the client's to fix, transport failures are upstream's.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var te *llm.TransportError
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		writeJSON(w, http.StatusPreconditionFailed, errorResponse{Error: "API key is not configured"})
	case errors.As(err, &te):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: te.Error()})
	case errors.Is(err, analysis.ErrNoRecords):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no analysis records for case"})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
