package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"casefile/internal/imaging"
	"casefile/internal/llm"
	"casefile/internal/salvage"
	"casefile/internal/storage"
)

const imageSystemPrompt = `Você é um assistente de análise de evidências. Faça OCR de imagens e identifique placas de veículos e rostos, sem inventar conteúdo.`

const imageUserPrompt = `Extraia o conteúdo desta imagem de evidência e responda somente com JSON no formato:
{"text": "todo o texto visível", "plates": ["placas de veículo"], "faces": [{"x": 0, "y": 0, "w": 0, "h": 0}]}`

type ImagePayload struct {
	Text               string          `json:"text"`
	Plates             []string        `json:"plates,omitempty"`
	Faces              []salvage.Box   `json:"faces,omitempty"`
	EnhancementProfile imaging.Profile `json:"enhancement_profile"`
	EnhancedJPEG       string          `json:"enhanced_jpeg,omitempty"`
	Outcome            salvage.Outcome `json:"outcome"`
}

// AnalyzeImage enhances the image, sends it for OCR, and stores the
// extracted text, plates, and face boxes along with the enhanced copy.
func (s *Service) AnalyzeImage(ctx context.Context, caseID, filename string, data []byte) (storage.Record, error) {
	enhanced, profile, err := imaging.EnhanceBytes(data)
	if err != nil {
		return storage.Record{}, fmt.Errorf("enhance image: %w", err)
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(enhanced)
	reply, err := s.gateway.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.Text(llm.RoleSystem, imageSystemPrompt),
			{Role: llm.RoleUser, Parts: []llm.Part{
				{Text: imageUserPrompt},
				{ImageURL: dataURL},
			}},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return storage.Record{}, err
	}

	payload := parseImage(reply)
	payload.EnhancementProfile = profile
	payload.EnhancedJPEG = base64.StdEncoding.EncodeToString(enhanced)

	rec, err := s.record(caseID, filename, storage.KindImage, payload)
	if err != nil {
		return storage.Record{}, err
	}
	return s.finish(ctx, rec, payload.Outcome)
}

// parseImage: strict JSON first; otherwise the plate and box regexes pull
// what they can out of the free-text reply.
func parseImage(reply string) ImagePayload {
	var payload ImagePayload
	if salvage.DecodeJSON(reply, &payload) {
		payload.Plates = normalizePlates(payload.Plates)
		payload.Outcome = salvage.OutcomeStructured
		return payload
	}

	plates := salvage.Plates(strings.ToUpper(reply))
	boxes := salvage.Boxes(reply)
	if len(plates) > 0 || len(boxes) > 0 {
		return ImagePayload{
			Text:    salvage.StripFences(reply),
			Plates:  plates,
			Faces:   boxes,
			Outcome: salvage.OutcomeSalvaged,
		}
	}
	return ImagePayload{Outcome: salvage.OutcomeDefaulted}
}

// normalizePlates strips separators from structured plates so both parse
// tiers store the same canonical form.
func normalizePlates(plates []string) []string {
	if len(plates) == 0 {
		return nil
	}
	out := make([]string, 0, len(plates))
	for _, p := range plates {
		p = strings.ToUpper(strings.TrimSpace(p))
		p = strings.ReplaceAll(p, "-", "")
		p = strings.ReplaceAll(p, " ", "")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
