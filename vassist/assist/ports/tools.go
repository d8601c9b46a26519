package assistports

import "encoding/json"

// ToolSpec describes one callable capability declared to the model.
type ToolSpec struct {
	Name        string // unique logical name
	Description string // concise doc for model selection
	JSONSchema  []byte // JSON schema for args, shared with local validation
}

// ToolCall is a model-invoked function with JSON arguments.
type ToolCall struct {
	Name string
	Args json.RawMessage
}
