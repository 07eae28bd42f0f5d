package analysis

import (
	"context"

	"casefile/internal/llm"
	"casefile/internal/salvage"
	"casefile/internal/storage"
)

const graphSystemPrompt = `Você é um assistente de análise de vínculos. Extraia pessoas, veículos, locais e organizações e os relacionamentos entre eles, sem inventar conexões.`

const graphUserPrompt = `Extraia a rede de vínculos dos dados a seguir e responda somente com JSON no formato:
{"nodes": [{"id": "n1", "label": "nome", "type": "person|vehicle|location|organization"}], "edges": [{"source": "n1", "target": "n2", "relation": "descrição"}]}

Dados:
`

type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type GraphEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

type GraphPayload struct {
	Nodes   []GraphNode     `json:"nodes"`
	Edges   []GraphEdge     `json:"edges"`
	Outcome salvage.Outcome `json:"outcome"`
}

// AnalyzeLinks extracts a relationship graph from tabular or free-form
// relationship data and stores it.
func (s *Service) AnalyzeLinks(ctx context.Context, caseID, filename, data string) (storage.Record, error) {
	reply, err := s.gateway.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.Text(llm.RoleSystem, graphSystemPrompt),
			llm.Text(llm.RoleUser, graphUserPrompt+data),
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return storage.Record{}, err
	}

	payload := parseGraph(reply)
	rec, err := s.record(caseID, filename, storage.KindGraph, payload)
	if err != nil {
		return storage.Record{}, err
	}
	return s.finish(ctx, rec, payload.Outcome)
}

// parseGraph has no useful regex tier: a graph that does not decode as JSON
// defaults to empty rather than guessing at edges.
func parseGraph(reply string) GraphPayload {
	var payload GraphPayload
	if salvage.DecodeJSON(reply, &payload) && len(payload.Nodes) > 0 {
		payload.Outcome = salvage.OutcomeStructured
		return payload
	}
	return GraphPayload{
		Nodes:   []GraphNode{},
		Edges:   []GraphEdge{},
		Outcome: salvage.OutcomeDefaulted,
	}
}
