package analysis

import (
	"context"
	"strings"

	"casefile/internal/llm"
	"casefile/internal/salvage"
	"casefile/internal/storage"
)

const documentSystemPrompt = `Você é um assistente de análise investigativa. Analise documentos de ocorrência e extraia informações estruturadas com precisão, sem inventar fatos.`

const documentUserPrompt = `Analise o documento de ocorrência a seguir e responda somente com JSON no formato:
{"summary": "resumo objetivo", "people": ["nomes citados"], "locations": ["endereços e locais"], "dates": ["datas no formato AAAA-MM-DD"]}

Documento:
`

type DocumentPayload struct {
	Summary   string          `json:"summary"`
	People    []string        `json:"people,omitempty"`
	Locations []string        `json:"locations,omitempty"`
	Dates     []string        `json:"dates,omitempty"`
	Outcome   salvage.Outcome `json:"outcome"`
}

// AnalyzeDocument summarizes one occurrence document and stores the result.
func (s *Service) AnalyzeDocument(ctx context.Context, caseID, filename, text string) (storage.Record, error) {
	reply, err := s.gateway.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.Text(llm.RoleSystem, documentSystemPrompt),
			llm.Text(llm.RoleUser, documentUserPrompt+text),
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return storage.Record{}, err
	}

	payload := parseDocument(reply)
	rec, err := s.record(caseID, filename, storage.KindDocument, payload)
	if err != nil {
		return storage.Record{}, err
	}
	return s.finish(ctx, rec, payload.Outcome)
}

// parseDocument: strict JSON first; otherwise the raw reply text stands in
// as the summary; an empty reply defaults to an empty payload.
func parseDocument(reply string) DocumentPayload {
	var payload DocumentPayload
	if salvage.DecodeJSON(reply, &payload) && strings.TrimSpace(payload.Summary) != "" {
		payload.Outcome = salvage.OutcomeStructured
		return payload
	}

	if text := salvage.StripFences(reply); text != "" {
		return DocumentPayload{Summary: text, Outcome: salvage.OutcomeSalvaged}
	}
	return DocumentPayload{Outcome: salvage.OutcomeDefaulted}
}
