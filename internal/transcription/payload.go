package transcription

import (
	"encoding/json"
	"fmt"
	"strings"

	"voicenotes/internal/model"
)

// ParsePayload strips any markdown code fences from the model's response
// and parses the remainder as JSON. Any valid JSON value is accepted; when
// the value is not an object the returned payload is empty and consumers
// fall back to the documented defaults. The cleaned raw JSON is returned
// for persistence as-is.
func ParsePayload(raw string) (model.TranscriptionPayload, json.RawMessage, error) {
	clean := stripFences(raw)

	var value interface{}
	if err := json.Unmarshal([]byte(clean), &value); err != nil {
		return nil, nil, fmt.Errorf("transcription response is not valid JSON: %w", err)
	}

	payload, _ := value.(map[string]interface{})
	return model.TranscriptionPayload(payload), json.RawMessage(clean), nil
}

func stripFences(s string) string {
	clean := strings.TrimSpace(s)
	if strings.HasPrefix(clean, "```json") {
		clean = clean[len("```json"):]
	} else if strings.HasPrefix(clean, "```") {
		clean = clean[len("```"):]
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}
