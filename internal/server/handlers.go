package server

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"casefile/internal/settings"
)

// settingsDTO is the read shape of the settings record. The API key never
// leaves the service: callers only see whether one is set.
type settingsDTO struct {
	HasAPIKey                bool   `json:"has_api_key"`
	ChatEndpointURL          string `json:"chat_endpoint_url"`
	ChatModel                string `json:"chat_model"`
	TranscriptionEndpointURL string `json:"transcription_endpoint_url"`
	TranscriptionModel       string `json:"transcription_model"`
	Language                 string `json:"language"`
	MockMode                 bool   `json:"mock_mode"`
}

func toSettingsDTO(cfg settings.Settings) settingsDTO {
	return settingsDTO{
		HasAPIKey:                strings.TrimSpace(cfg.APIKey) != "",
		ChatEndpointURL:          cfg.ChatEndpointURL,
		ChatModel:                cfg.ChatModel,
		TranscriptionEndpointURL: cfg.TranscriptionEndpointURL,
		TranscriptionModel:       cfg.TranscriptionModel,
		Language:                 cfg.Language,
		MockMode:                 cfg.MockMode,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSettingsDTO(s.settings.Load(r.Context())))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var cfg settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		badRequest(w, "invalid settings body")
		return
	}
	if err := s.settings.Save(r.Context(), cfg); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(s.settings.Load(r.Context())))
}

type textAnalysisRequest struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseID")
	var req textAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Filename) == "" || strings.TrimSpace(req.Text) == "" {
		badRequest(w, "filename and text are required")
		return
	}

	rec, err := s.analysis.AnalyzeDocument(r.Context(), caseID, req.Filename, req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(rec))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseID")
	file, header, ok := s.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload))
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.analysis.AnalyzeImage(r.Context(), caseID, header.Filename, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(rec))
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseID")
	file, header, ok := s.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	rec, err := s.analysis.AnalyzeAudio(r.Context(), caseID, header.Filename, file)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(rec))
}

type linksAnalysisRequest struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseID")
	var req linksAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Filename) == "" || strings.TrimSpace(req.Data) == "" {
		badRequest(w, "filename and data are required")
		return
	}

	rec, err := s.analysis.AnalyzeLinks(r.Context(), caseID, req.Filename, req.Data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(rec))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.analysis.BuildReport(r.Context(), r.PathValue("caseID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(rec))
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListRecords(r.Context(), r.PathValue("caseID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]recordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, toDTO(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteRecords(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.DeleteCaseRecords(r.Context(), r.PathValue("caseID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		badRequest(w, "invalid multipart form")
		return nil, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "multipart field 'file' is required")
		return nil, nil, false
	}
	return file, header, true
}
