// Package diarize assigns speaker labels to transcript segments.
//
// This is NOT speaker diarization. The labels come from a fixed round-robin
// heuristic over segment position, kept for parity with the behavior this
// service replaces. Swapping in a real diarization backend would replace
// this package wholesale.
package diarize

import (
	"strings"

	"casefile/internal/llm"
)

// A new speaker label starts every rotateEvery remote segments; two labels
// alternate. Fallback sentences get syntheticSeconds of timing each.
const (
	rotateEvery      = 3
	speakerCount     = 2
	syntheticSeconds = 5.0
)

type Segment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// Label produces labeled segments from a transcription: timed remote
// segments when present, otherwise sentences split on terminal punctuation
// with synthetic timing.
func Label(t llm.Transcription) []Segment {
	if len(t.Segments) > 0 {
		return fromRemote(t.Segments)
	}
	return fromText(t.Text)
}

func fromRemote(segs []llm.Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for i, s := range segs {
		out = append(out, Segment{
			Speaker: speakerLabel((i / rotateEvery) % speakerCount),
			Start:   s.Start,
			End:     s.End,
			Text:    strings.TrimSpace(s.Text),
		})
	}
	return out
}

func fromText(text string) []Segment {
	sentences := splitSentences(text)
	out := make([]Segment, 0, len(sentences))
	for i, s := range sentences {
		out = append(out, Segment{
			Speaker: speakerLabel(i % speakerCount),
			Start:   float64(i) * syntheticSeconds,
			End:     float64(i+1) * syntheticSeconds,
			Text:    s,
		})
	}
	return out
}

func speakerLabel(idx int) string {
	return "Speaker " + string(rune('1'+idx))
}

// splitSentences cuts on terminal punctuation, keeping the punctuation with
// its sentence.
func splitSentences(text string) []string {
	var out []string
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(sb.String()); s != "" {
				out = append(out, s)
			}
			sb.Reset()
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		out = append(out, s)
	}
	return out
}
