package identification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

// jsonObjectPattern spans from the first '{' to the last '}' of the answer
var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractJSON pulls the JSON object out of a free-text model answer. The first
// brace-delimited span wins and surrounding prose or code fences are ignored.
// Only when the text has no such span is the whole text parsed instead. A span
// that is found but does not parse is an error.
//
// This is a best-effort heuristic, not a schema check: any valid JSON value is
// accepted and returned compacted.
func ExtractJSON(text string) (json.RawMessage, error) {
	candidate := text
	if match := jsonObjectPattern.FindString(text); match != "" {
		candidate = match
	}

	var raw json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return buf.Bytes(), nil
}
