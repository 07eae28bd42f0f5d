package diarize

import (
	"testing"

	"casefile/internal/llm"
)

func TestLabelSynthesizesSegmentsFromText(t *testing.T) {
	segs := Label(llm.Transcription{Text: "Hello there. How are you? Fine thanks."})
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}

	wantSpeakers := []string{"Speaker 1", "Speaker 2", "Speaker 1"}
	for i, seg := range segs {
		if seg.Speaker != wantSpeakers[i] {
			t.Fatalf("segment %d: expected %s, got %s", i, wantSpeakers[i], seg.Speaker)
		}
		if seg.Start != float64(i)*5 || seg.End != float64(i+1)*5 {
			t.Fatalf("segment %d: unexpected timing %v-%v", i, seg.Start, seg.End)
		}
	}
	if segs[0].Text != "Hello there." {
		t.Fatalf("unexpected first sentence %q", segs[0].Text)
	}
}

func TestLabelRotatesRemoteSegments(t *testing.T) {
	remote := make([]llm.Segment, 7)
	for i := range remote {
		remote[i] = llm.Segment{Start: float64(i), End: float64(i + 1), Text: "x"}
	}

	segs := Label(llm.Transcription{Text: "ignored", Segments: remote})
	if len(segs) != 7 {
		t.Fatalf("expected 7 segments, got %d", len(segs))
	}

	// Label rotates every 3 segments between two speakers.
	wantSpeakers := []string{
		"Speaker 1", "Speaker 1", "Speaker 1",
		"Speaker 2", "Speaker 2", "Speaker 2",
		"Speaker 1",
	}
	for i, seg := range segs {
		if seg.Speaker != wantSpeakers[i] {
			t.Fatalf("segment %d: expected %s, got %s", i, wantSpeakers[i], seg.Speaker)
		}
	}
	if segs[3].Start != 3 || segs[3].End != 4 {
		t.Fatalf("remote timing must be preserved, got %v-%v", segs[3].Start, segs[3].End)
	}
}

func TestLabelEmptyText(t *testing.T) {
	if segs := Label(llm.Transcription{}); len(segs) != 0 {
		t.Fatalf("expected no segments, got %d", len(segs))
	}
}
