package assist

import (
	"encoding/json"

	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"
)

// ResultKind tags what a completed capability produced.
type ResultKind string

const (
	ResultKindText       ResultKind = "text"
	ResultKindSearch     ResultKind = "search"
	ResultKindImage      ResultKind = "image"
	ResultKindStructured ResultKind = "structured"
)

// ToolResult is the outcome of one capability run. Text is always set and
// is what gets spoken and shown; the other fields carry kind-specific
// payloads for richer rendering.
type ToolResult struct {
	Kind    ResultKind
	Text    string
	Image   *ports.Blob
	Sources []ports.SearchSource
	Data    json.RawMessage
}
