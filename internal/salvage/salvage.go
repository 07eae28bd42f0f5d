// Package salvage recovers structured data from model replies. Tier one
// strips Markdown fences and decodes strict JSON; tier two pulls what it can
// out of free text with domain regexes; tier three is the caller's default
// structure. The outcome tag records which tier produced the result so
// callers and tests can tell full parses from partial recoveries.
package salvage

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

type Outcome string

const (
	// OutcomeStructured: the reply decoded as strict JSON.
	OutcomeStructured Outcome = "structured"
	// OutcomeSalvaged: strict decode failed but regex extraction recovered
	// partial data.
	OutcomeSalvaged Outcome = "salvaged"
	// OutcomeDefaulted: nothing recoverable; the caller's default stands.
	OutcomeDefaulted Outcome = "defaulted"
)

// StripFences removes a single leading/trailing Markdown code fence, with or
// without a language tag, from a model reply.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeJSON is the strict tier: fence-strip then unmarshal into v.
func DecodeJSON(raw string, v any) bool {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return false
	}
	return json.Unmarshal([]byte(cleaned), v) == nil
}

// plateRe matches Brazilian plates in both the legacy (ABC-1234) and
// Mercosul (ABC1D23) formats, with an optional dash or space separator.
var plateRe = regexp.MustCompile(`[A-Z]{3}[-\s]?[0-9][0-9A-Z]?[0-9]{2}`)

// Plates extracts plate strings from free text, separators stripped,
// duplicates removed, in order of first appearance.
func Plates(text string) []string {
	matches := plateRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.ReplaceAll(m, "-", "")
		m = strings.ReplaceAll(m, " ", "")
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// Box is a face bounding box in pixel coordinates.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// boxRe matches bracketed or bare integer quads like "[120, 80, 64, 64]".
var boxRe = regexp.MustCompile(`\[?\s*(\d{1,4})\s*,\s*(\d{1,4})\s*,\s*(\d{1,4})\s*,\s*(\d{1,4})\s*\]?`)

// Boxes extracts integer quads from free text as bounding boxes.
func Boxes(text string) []Box {
	matches := boxRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Box, 0, len(matches))
	for _, m := range matches {
		x, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		w, _ := strconv.Atoi(m[3])
		h, _ := strconv.Atoi(m[4])
		if w == 0 || h == 0 {
			continue
		}
		out = append(out, Box{X: x, Y: y, W: w, H: h})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
