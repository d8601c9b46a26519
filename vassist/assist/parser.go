package assist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// CleanJSON strips the markdown code fences models sometimes wrap around
// JSON replies even in constrained mode.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ValidateJSON checks that doc is valid JSON conforming to schema. An empty
// schema only checks JSON validity.
func ValidateJSON(doc json.RawMessage, schema []byte) error {
	if !json.Valid(doc) {
		return fmt.Errorf("document is not valid JSON")
	}
	if len(schema) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("schema validation errors: %s", strings.Join(details, "; "))
	}
	return nil
}
