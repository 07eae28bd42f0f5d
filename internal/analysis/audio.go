package analysis

import (
	"context"
	"io"

	"casefile/internal/diarize"
	"casefile/internal/storage"
)

type AudioPayload struct {
	Text     string            `json:"text"`
	Segments []diarize.Segment `json:"segments"`
}

// AnalyzeAudio transcribes a recording, labels the segments, and stores the
// result. Speaker labels come from the diarize heuristic, not real
// diarization.
func (s *Service) AnalyzeAudio(ctx context.Context, caseID, filename string, audio io.Reader) (storage.Record, error) {
	tr, err := s.gateway.Transcribe(ctx, audio, filename)
	if err != nil {
		return storage.Record{}, err
	}

	payload := AudioPayload{
		Text:     tr.Text,
		Segments: diarize.Label(tr),
	}
	rec, err := s.record(caseID, filename, storage.KindAudio, payload)
	if err != nil {
		return storage.Record{}, err
	}
	return s.finish(ctx, rec, "")
}
