package judge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParsePayload turns a model's text content into an unvalidated payload.
// Models occasionally wrap JSON in markdown fences despite being asked for a
// bare object, so fences are stripped before decoding.
func ParsePayload(content string) (*RawPayload, error) {
	cleaned := extractJSON(content)

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, MalformedError(fmt.Errorf("response content is not a JSON object: %w", err))
	}

	return &RawPayload{Fields: fields, Raw: content}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
