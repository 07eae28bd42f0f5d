package analysis

import (
	"context"
	"fmt"
	"strings"

	"casefile/internal/llm"
	"casefile/internal/storage"
)

const reportSystemPrompt = `Você é um assistente de redação investigativa. Redija relatórios narrativos formais a partir de análises já concluídas, sem acrescentar fatos novos.`

const reportUserPrompt = `Com base nas análises a seguir, redija um relatório investigativo narrativo em português formal, organizado em seções (dos fatos, das diligências, conclusão).

Análises:
`

// ReportFilename is the fixed filename under which a case's narrative report
// is stored; regenerating a report replaces the previous one.
const ReportFilename = "case-report"

type ReportPayload struct {
	Report string `json:"report"`
}

// BuildReport assembles every stored analysis for the case into a prompt and
// stores the generated narrative as the case's report record.
func (s *Service) BuildReport(ctx context.Context, caseID string) (storage.Record, error) {
	records, err := s.store.ListRecords(ctx, caseID)
	if err != nil {
		return storage.Record{}, err
	}

	var sb strings.Builder
	for _, rec := range records {
		if rec.Kind == storage.KindReport {
			continue
		}
		fmt.Fprintf(&sb, "### %s (%s)\n%s\n\n", rec.Filename, rec.Kind, rec.PayloadJSON)
	}
	if sb.Len() == 0 {
		return storage.Record{}, ErrNoRecords
	}

	reply, err := s.gateway.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.Text(llm.RoleSystem, reportSystemPrompt),
			llm.Text(llm.RoleUser, reportUserPrompt+sb.String()),
		},
		MaxTokens: 2048,
	})
	if err != nil {
		return storage.Record{}, err
	}

	payload := ReportPayload{Report: strings.TrimSpace(reply)}
	rec, err := s.record(caseID, ReportFilename, storage.KindReport, payload)
	if err != nil {
		return storage.Record{}, err
	}
	return s.finish(ctx, rec, "")
}
