package assistports

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNoImage is returned when an image call succeeds but carries no inline
// image part.
var ErrNoImage = errors.New("no image in response")

// Blob is inline binary content attached to a message or returned by the
// model.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Part is one piece of a message: text, an inline blob, or both.
type Part struct {
	Text string
	Blob *Blob
}

// Message is one prior turn of history sent upstream.
type Message struct {
	Role  string // "user" or "model"
	Parts []Part
}

// ChatRequest carries a streaming chat turn: prior history plus the new
// user parts.
type ChatRequest struct {
	Model   string
	System  string
	History []Message
	Parts   []Part
}

// ChatDelta is one streamed chunk of a chat reply. Err is terminal; the
// channel closes after it.
type ChatDelta struct {
	Text string
	Done bool
	Err  error
}

// DecideRequest asks the model to pick an action for a user turn, given the
// declared tools.
type DecideRequest struct {
	Model   string
	System  string
	History []Message
	Parts   []Part
	Tools   []ToolSpec
}

// Decision is the outcome of an action-selection call: either a direct text
// answer or the first function call the model produced. When the model
// returns several calls in one response, only the first is honored.
type Decision struct {
	Text string
	Call *ToolCall
	Raw  any // raw provider payload for debugging/telemetry
}

// StructuredRequest asks for JSON conforming to a schema. The same schema
// bytes drive both the provider-side constraint and local validation.
type StructuredRequest struct {
	Model  string
	System string
	Prompt string
	Schema []byte
}

// SearchSource is one grounding citation behind a search answer.
type SearchSource struct {
	URI   string
	Title string
}

// SearchResult is a search-grounded answer with its citations.
type SearchResult struct {
	Text    string
	Sources []SearchSource
}

// ImageRequest asks for an inline generated image. Input optionally seeds
// the generation with a source image to edit.
type ImageRequest struct {
	Model  string
	Prompt string
	Input  *Blob
}

// ImageResult carries the generated image and any text the model added
// alongside it.
type ImageResult struct {
	Text  string
	Image *Blob
}

// VideoRequest submits a long-running video render.
type VideoRequest struct {
	Model       string
	Prompt      string
	Image       *Blob // optional first frame
	AspectRatio string
	Resolution  string
}

// VideoOperation is the handle to a long-running render, refreshed on every
// poll. Raw holds the provider's own operation payload between polls so the
// adapter can resume it without re-deriving state.
type VideoOperation struct {
	Name string
	Done bool
	URI  string // set when Done and the render succeeded
	Err  string // provider-reported failure message, set when Done and failed
	Raw  any
}

// Provider is the abstraction for the remote model backend. All network
// traffic flows through this port.
type Provider interface {
	// StreamChat streams a plain conversational reply.
	StreamChat(ctx context.Context, req ChatRequest) (<-chan ChatDelta, error)
	// Decide runs the action-selection call with tool declarations attached.
	Decide(ctx context.Context, req DecideRequest) (Decision, error)
	// GenerateStructured returns JSON constrained by the request schema.
	GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error)
	// GroundedSearch answers a query with live search grounding.
	GroundedSearch(ctx context.Context, model, query string) (SearchResult, error)
	// GenerateImage returns an inline image for the prompt.
	GenerateImage(ctx context.Context, req ImageRequest) (ImageResult, error)
	// StartVideo submits a render job and returns its operation handle.
	StartVideo(ctx context.Context, req VideoRequest) (*VideoOperation, error)
	// PollVideo refreshes an operation handle.
	PollVideo(ctx context.Context, op *VideoOperation) (*VideoOperation, error)
	// FetchVideo downloads the finished render in a second round trip.
	FetchVideo(ctx context.Context, op *VideoOperation) ([]byte, error)
}
