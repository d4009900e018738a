package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisDocument is the parsed model output, one raw JSON value per
// top level section.
type AnalysisDocument map[string]json.RawMessage

// Section returns the raw JSON for key, or nil when the model omitted it.
func (doc AnalysisDocument) Section(key string) json.RawMessage {
	return doc[key]
}

// Marshal re-encodes the full document for storage.
func (doc AnalysisDocument) Marshal() json.RawMessage {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	return b
}

// ParseAnalysisResponse extracts the JSON document from a model response,
// tolerating markdown code fences around the payload.
func ParseAnalysisResponse(response string) (AnalysisDocument, error) {
	clean := stripCodeFences(strings.TrimSpace(response))

	var doc AnalysisDocument
	if err := json.Unmarshal([]byte(clean), &doc); err != nil {
		return nil, fmt.Errorf("model response is not valid JSON: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("model response contains no analysis sections")
	}
	return doc, nil
}

func stripCodeFences(text string) string {
	if start := strings.Index(text, "```json"); start >= 0 {
		end := strings.LastIndex(text, "```")
		if end > start {
			return strings.TrimSpace(text[start+len("```json") : end])
		}
	}
	if start := strings.Index(text, "```"); start >= 0 {
		end := strings.LastIndex(text, "```")
		if end > start+3 {
			return strings.TrimSpace(text[start+3 : end])
		}
	}
	return text
}
