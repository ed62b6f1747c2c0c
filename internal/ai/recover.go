package ai

import (
	"encoding/json"
	"strings"
)

// Result is the outcome of recovering a structured object from raw model
// output. Exactly one of two shapes: a parsed object, or the caller's
// fallback plus the original text for audit. A fallback Result is a valid
// value, not an error.
type Result struct {
	Value    map[string]interface{} `json:"value"`
	Fallback bool                   `json:"fallback"`
	RawText  string                 `json:"raw_text,omitempty"`
}

// Recover coerces a model's free-text reply into a JSON object. Models wrap
// JSON in markdown fences and surround it with prose; this strips the
// decoration, takes the span from the first '{' to the last '}', and parses.
// A parse failure gets one cleanup pass (control characters removed) and one
// retry. All failure modes return the fallback; Recover never returns an
// error.
func Recover(raw string, fallback map[string]interface{}) Result {
	text := strings.TrimSpace(raw)
	text = stripFences(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return Result{Value: fallback, Fallback: true, RawText: raw}
	}
	candidate := text[start : end+1]

	var value map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &value); err == nil {
		return Result{Value: value}
	}

	// Models occasionally emit literal control characters inside strings,
	// which strict JSON rejects. Scrub and retry once.
	cleaned := stripControlChars(candidate)
	if err := json.Unmarshal([]byte(cleaned), &value); err == nil {
		return Result{Value: value}
	}

	return Result{Value: fallback, Fallback: true, RawText: raw}
}

// Decode re-marshals a recovered object into a typed schema struct so
// missing fields surface as validation errors instead of nil-map lookups
// downstream.
func Decode(res Result, v interface{}) error {
	data, err := json.Marshal(res.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// stripFences removes markdown code-fence markers, keeping the enclosed
// text. Tolerates zero, one, or multiple fence pairs.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// stripControlChars removes code points below 0x20 and in the 0x7F-0x9F
// range. Legal JSON escapes are two-character sequences and are untouched.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
			return -1
		}
		return r
	}, s)
}
