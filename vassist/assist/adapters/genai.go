// Package adapters provides the concrete backends behind the assist ports:
// the hosted model provider, credential gate, rate limiter, and tracer.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// credentialRejection is the upstream's phrasing when a key is unknown to
// it. Any error carrying it is remapped to ErrCredentialInvalid so callers
// can trip the key gate instead of retrying.
const credentialRejection = "requested entity was not found"

// GenAIProvider implements the Provider port on the hosted Gemini API.
type GenAIProvider struct {
	client *genai.Client
	apiKey string
	http   *http.Client
	logger zerolog.Logger
}

// NewGenAIProvider dials the hosted API with the given key.
func NewGenAIProvider(ctx context.Context, apiKey string, logger zerolog.Logger) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required: %w", ports.ErrCredentialMissing)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIProvider{
		client: client,
		apiKey: apiKey,
		http:   &http.Client{},
		logger: logger,
	}, nil
}

// StreamChat streams a conversational reply. The returned channel closes
// after the final delta; a mid-stream failure arrives as a terminal delta
// with Err set.
func (p *GenAIProvider) StreamChat(ctx context.Context, req ports.ChatRequest) (<-chan ports.ChatDelta, error) {
	contents := toContents(req.History, req.Parts)
	if len(contents) == 0 {
		return nil, fmt.Errorf("chat request has no content")
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	out := make(chan ports.ChatDelta, 8)
	go func() {
		defer close(out)
		for resp, err := range p.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
			if err != nil {
				p.deliver(ctx, out, ports.ChatDelta{Done: true, Err: remapErr(err)})
				return
			}
			if text := resp.Text(); text != "" {
				if !p.deliver(ctx, out, ports.ChatDelta{Text: text}) {
					return
				}
			}
		}
		p.deliver(ctx, out, ports.ChatDelta{Done: true})
	}()
	return out, nil
}

func (p *GenAIProvider) deliver(ctx context.Context, out chan<- ports.ChatDelta, d ports.ChatDelta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

// Decide runs the action-selection call with tool declarations attached.
// When the model emits several function calls in one response, only the
// first becomes the decision.
func (p *GenAIProvider) Decide(ctx context.Context, req ports.DecideRequest) (ports.Decision, error) {
	contents := toContents(req.History, req.Parts)
	if len(contents) == 0 {
		return ports.Decision{}, fmt.Errorf("decide request has no content")
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, spec := range req.Tools {
			params, err := SchemaFromJSON(spec.JSONSchema)
			if err != nil {
				return ports.Decision{}, fmt.Errorf("invalid schema for tool %s: %w", spec.Name, err)
			}
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  params,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return ports.Decision{}, fmt.Errorf("decision call failed: %w", remapErr(err))
	}

	decision := ports.Decision{Text: resp.Text(), Raw: resp}
	if calls := resp.FunctionCalls(); len(calls) > 0 {
		args, err := json.Marshal(calls[0].Args)
		if err != nil {
			return ports.Decision{}, fmt.Errorf("failed to encode call args: %w", err)
		}
		decision.Call = &ports.ToolCall{Name: calls[0].Name, Args: args}
	}
	return decision, nil
}

// GenerateStructured returns JSON constrained by the request schema. The
// response is returned as-is; schema validation stays with the caller so
// one schema source serves both sides.
func (p *GenAIProvider) GenerateStructured(ctx context.Context, req ports.StructuredRequest) (json.RawMessage, error) {
	schema, err := SchemaFromJSON(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("invalid response schema: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("structured call failed: %w", remapErr(err))
	}
	return json.RawMessage(resp.Text()), nil
}

// GroundedSearch answers a query with live search grounding and collects
// the citation chunks the model consulted.
func (p *GenAIProvider) GroundedSearch(ctx context.Context, model, query string) (ports.SearchResult, error) {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(query), cfg)
	if err != nil {
		return ports.SearchResult{}, fmt.Errorf("search call failed: %w", remapErr(err))
	}

	result := ports.SearchResult{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.Web != nil {
				result.Sources = append(result.Sources, ports.SearchSource{
					URI:   chunk.Web.URI,
					Title: chunk.Web.Title,
				})
			}
		}
	}
	return result, nil
}

// GenerateImage asks the image model for an inline image and gathers any
// text the model added alongside it.
func (p *GenAIProvider) GenerateImage(ctx context.Context, req ports.ImageRequest) (ports.ImageResult, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Input != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Input.Data, req.Input.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return ports.ImageResult{}, fmt.Errorf("image call failed: %w", remapErr(err))
	}

	var result ports.ImageResult
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				result.Text += part.Text
			}
			if part.InlineData != nil && result.Image == nil {
				result.Image = &ports.Blob{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				}
			}
		}
	}
	if result.Image == nil {
		return ports.ImageResult{}, ports.ErrNoImage
	}
	return result, nil
}

// StartVideo submits a render job and returns its operation handle.
func (p *GenAIProvider) StartVideo(ctx context.Context, req ports.VideoRequest) (*ports.VideoOperation, error) {
	var image *genai.Image
	if req.Image != nil {
		image = &genai.Image{ImageBytes: req.Image.Data, MIMEType: req.Image.MIMEType}
	}

	cfg := &genai.GenerateVideosConfig{NumberOfVideos: 1}
	if req.AspectRatio != "" {
		cfg.AspectRatio = req.AspectRatio
	}
	if req.Resolution != "" {
		cfg.Resolution = req.Resolution
	}

	op, err := p.client.Models.GenerateVideos(ctx, req.Model, req.Prompt, image, cfg)
	if err != nil {
		return nil, fmt.Errorf("video submit failed: %w", remapErr(err))
	}
	return checkVideoOp(toVideoOperation(op))
}

// PollVideo refreshes an operation handle.
func (p *GenAIProvider) PollVideo(ctx context.Context, op *ports.VideoOperation) (*ports.VideoOperation, error) {
	raw, ok := op.Raw.(*genai.GenerateVideosOperation)
	if !ok {
		raw = &genai.GenerateVideosOperation{Name: op.Name}
	}

	fresh, err := p.client.Operations.GetVideosOperation(ctx, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("video poll failed: %w", remapErr(err))
	}
	return checkVideoOp(toVideoOperation(fresh))
}

// FetchVideo downloads the finished render. The download endpoint expects
// the credential as a query parameter, so this is a plain authenticated GET
// rather than an SDK call.
func (p *GenAIProvider) FetchVideo(ctx context.Context, op *ports.VideoOperation) ([]byte, error) {
	if op == nil || op.URI == "" {
		return nil, fmt.Errorf("video operation has no download uri")
	}

	url := op.URI
	if strings.Contains(url, "?") {
		url += "&key=" + p.apiKey
	} else {
		url += "?key=" + p.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build video download request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read video body: %w", err)
	}
	p.logger.Debug().Int("bytes", len(data)).Msg("video downloaded")
	return data, nil
}

// remapErr translates upstream rejections of the credential into the
// sentinel callers key off.
func remapErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), credentialRejection) {
		return fmt.Errorf("%w: %v", ports.ErrCredentialInvalid, err)
	}
	return err
}

// checkVideoOp catches a terminal operation failure that is really a
// credential rejection. The upstream reports those inside the operation
// error rather than as a call error, so the remap happens here too.
func checkVideoOp(op *ports.VideoOperation) (*ports.VideoOperation, error) {
	if op.Done && strings.Contains(strings.ToLower(op.Err), credentialRejection) {
		return nil, fmt.Errorf("%w: %s", ports.ErrCredentialInvalid, op.Err)
	}
	return op, nil
}

func toVideoOperation(op *genai.GenerateVideosOperation) *ports.VideoOperation {
	out := &ports.VideoOperation{Name: op.Name, Done: op.Done, Raw: op}
	if op.Error != nil {
		if msg, ok := op.Error["message"].(string); ok && msg != "" {
			out.Err = msg
		} else {
			out.Err = fmt.Sprintf("%v", op.Error)
		}
	}
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		if video := op.Response.GeneratedVideos[0].Video; video != nil {
			out.URI = video.URI
		}
	}
	return out
}

func toContents(history []ports.Message, parts []ports.Part) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == "model" {
			role = genai.RoleModel
		}
		if converted := toGenAIParts(m.Parts); len(converted) > 0 {
			contents = append(contents, genai.NewContentFromParts(converted, role))
		}
	}
	if converted := toGenAIParts(parts); len(converted) > 0 {
		contents = append(contents, genai.NewContentFromParts(converted, genai.RoleUser))
	}
	return contents
}

func toGenAIParts(parts []ports.Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Text != "" {
			out = append(out, genai.NewPartFromText(p.Text))
		}
		if p.Blob != nil {
			out = append(out, genai.NewPartFromBytes(p.Blob.Data, p.Blob.MIMEType))
		}
	}
	return out
}

// Ensure GenAIProvider implements the Provider interface.
var _ ports.Provider = (*GenAIProvider)(nil)
