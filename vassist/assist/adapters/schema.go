package adapters

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// jsonSchema is the subset of JSON Schema the tool declarations use.
type jsonSchema struct {
	Type        string                `json:"type"`
	Description string                `json:"description,omitempty"`
	Enum        []string              `json:"enum,omitempty"`
	Properties  map[string]jsonSchema `json:"properties,omitempty"`
	Required    []string              `json:"required,omitempty"`
	Items       *jsonSchema           `json:"items,omitempty"`
}

// SchemaFromJSON converts JSON schema bytes into the provider's schema
// type. Tool specs carry one schema source; this keeps the declaration sent
// upstream and the local argument validation in lockstep.
func SchemaFromJSON(raw []byte) (*genai.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var parsed jsonSchema
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse json schema: %w", err)
	}
	return convertSchema(&parsed)
}

func convertSchema(s *jsonSchema) (*genai.Schema, error) {
	if s == nil {
		return nil, nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}

	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
		if len(s.Properties) > 0 {
			out.Properties = make(map[string]*genai.Schema, len(s.Properties))
			for name, prop := range s.Properties {
				prop := prop
				converted, err := convertSchema(&prop)
				if err != nil {
					return nil, fmt.Errorf("property %s: %w", name, err)
				}
				out.Properties[name] = converted
			}
		}
	case "array":
		out.Type = genai.TypeArray
		items, err := convertSchema(s.Items)
		if err != nil {
			return nil, fmt.Errorf("array items: %w", err)
		}
		out.Items = items
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", s.Type)
	}
	return out, nil
}
