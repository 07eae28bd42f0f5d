// Package mock is the demo-mode gateway: canned responses, no network.
// It is only ever selected through the explicit mock_mode settings flag,
// never as a silent fallback for missing keys or transport failures.
package mock

import (
	"context"
	"io"
	"strings"

	"casefile/internal/llm"
)

type Completer struct{}

func NewCompleter() *Completer { return &Completer{} }

var _ llm.Completer = (*Completer)(nil)

// Complete picks a canned payload from domain keywords in the last user
// message, mirroring the shapes the real prompts request.
func (c *Completer) Complete(_ context.Context, req llm.Request) (string, error) {
	last := strings.ToLower(req.LastUserText())
	switch {
	case containsAny(last, "imagem", "image", "ocr"):
		return imagePayload, nil
	case containsAny(last, "áudio", "audio", "transcri"):
		return audioPayload, nil
	case containsAny(last, "vínculo", "vinculo", "link", "relacionamento"):
		return graphPayload, nil
	case containsAny(last, "relatório", "relatorio", "report"):
		return reportPayload, nil
	default:
		return documentPayload, nil
	}
}

type Transcriber struct{}

func NewTranscriber() *Transcriber { return &Transcriber{} }

var _ llm.Transcriber = (*Transcriber)(nil)

func (t *Transcriber) Transcribe(_ context.Context, audio io.Reader, _, _ string) (llm.Transcription, error) {
	// Drain so handlers behave the same with either transcriber.
	_, _ = io.Copy(io.Discard, audio)
	return llm.Transcription{
		Text: "Eu estava na esquina quando o carro passou. O motorista desceu e discutiu com a vítima. Depois ele fugiu em direção ao centro.",
		Segments: []llm.Segment{
			{Start: 0, End: 4.2, Text: "Eu estava na esquina quando o carro passou."},
			{Start: 4.2, End: 9.8, Text: "O motorista desceu e discutiu com a vítima."},
			{Start: 9.8, End: 14.5, Text: "Depois ele fugiu em direção ao centro."},
		},
	}, nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

const imagePayload = `{
  "text": "VEÍCULO GOL BRANCO PLACA ABC1234 AVENIDA BRASIL 1500",
  "plates": ["ABC1234"],
  "faces": [{"x": 120, "y": 80, "w": 64, "h": 64}]
}`

const audioPayload = `{
  "summary": "Testemunha relata discussão entre motorista e vítima seguida de fuga."
}`

const graphPayload = `{
  "nodes": [
    {"id": "p1", "label": "João Silva", "type": "person"},
    {"id": "p2", "label": "Maria Souza", "type": "person"},
    {"id": "v1", "label": "ABC1234", "type": "vehicle"}
  ],
  "edges": [
    {"source": "p1", "target": "p2", "relation": "conhece"},
    {"source": "p1", "target": "v1", "relation": "proprietário"}
  ]
}`

const reportPayload = `RELATÓRIO DE INVESTIGAÇÃO

1. Dos fatos: ocorrência registrada envolvendo veículo de placa ABC1234.
2. Das diligências: análise de documentos, imagens e depoimentos anexados.
3. Conclusão: os elementos reunidos indicam necessidade de oitiva do proprietário do veículo.`

const documentPayload = `{
  "summary": "Boletim de ocorrência relata furto de veículo na Avenida Brasil, com testemunha presencial e indicação de suspeito.",
  "people": ["João Silva", "Maria Souza"],
  "locations": ["Avenida Brasil, 1500"],
  "dates": ["2026-05-14"]
}`
