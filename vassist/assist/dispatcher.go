package assist

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/conversation"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/media"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/schedule"

	"github.com/rs/zerolog"
)

// ErrBusy is returned when a dispatch is already in flight. The dispatcher
// processes one turn at a time; callers surface this instead of queueing.
var ErrBusy = errors.New("a request is already being processed")

// ErrEmptyPrompt is returned when a turn carries neither text nor
// attachments.
var ErrEmptyPrompt = errors.New("empty prompt")

// ParseError marks a model reply that arrived but failed schema
// validation. It is surfaced apart from transport failures so the user
// sees which capability produced the malformed reply.
type ParseError struct {
	Tool ToolName
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s reply failed validation: %v", e.Tool, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// User-facing fallback lines. The assistant's regular replies come from the
// model in the configured language; these cover the paths where the model
// never got to answer.
const (
	msgGenericError       = "Üzgünüm, isteğinizi işlerken bir sorun oluştu. Lütfen tekrar deneyin."
	msgCredentialProblem  = "API anahtarıyla ilgili bir sorun var. Lütfen yapılandırmanızı kontrol edin."
	msgNoCapability       = "Bunu henüz yapamıyorum, ama sürekli yeni şeyler öğreniyorum."
	msgParseProblem       = "Üzgünüm, %s sonucu beklenen biçimde gelmedi. Lütfen tekrar deneyin."
	msgHereIsYourImage    = "İşte görseliniz!"
	attachmentPlaceholder = "[Ek dosya]"
)

// Config selects the models and persona the dispatcher runs with.
type Config struct {
	ChatModel       string
	DecisionModel   string
	StructuredModel string
	ImageModel      string
	Language        string
	Persona         string
}

// Input is one user turn: text, attachments, or both.
type Input struct {
	Text  string
	Parts []media.FilePart
}

// Dispatcher routes each user turn through an action-selection call and
// executes the chosen capability. It admits a single turn at a time: a
// second dispatch while one is in flight fails fast with ErrBusy.
type Dispatcher struct {
	cfg        Config
	provider   ports.Provider
	gate       ports.KeyGate
	limiter    ports.RateLimiter
	tracer     ports.Tracer
	planner    *schedule.Planner
	transcript *conversation.Transcript
	actions    *conversation.ActionLog
	logger     zerolog.Logger

	busy sync.Mutex
}

// NewDispatcher wires a dispatcher. All dependencies are required; use the
// factory for config-driven construction with no-op fallbacks.
func NewDispatcher(
	cfg Config,
	provider ports.Provider,
	gate ports.KeyGate,
	limiter ports.RateLimiter,
	tracer ports.Tracer,
	planner *schedule.Planner,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		provider:   provider,
		gate:       gate,
		limiter:    limiter,
		tracer:     tracer,
		planner:    planner,
		transcript: conversation.NewTranscript(),
		actions:    conversation.NewActionLog(),
		logger:     logger,
	}
}

// Transcript exposes the conversation history for rendering.
func (d *Dispatcher) Transcript() *conversation.Transcript {
	return d.transcript
}

// Actions exposes the audit log of completed actions.
func (d *Dispatcher) Actions() *conversation.ActionLog {
	return d.actions
}

// Dispatch processes one user turn end to end: it appends the user turn,
// asks the model to pick an action, runs the chosen capability, and appends
// the resulting model turn. On success with a capability the action is also
// recorded in the audit log; failures append an apology turn and leave the
// audit log untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, input Input) (conversation.Turn, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Parts) == 0 {
		return conversation.Turn{}, ErrEmptyPrompt
	}

	if !d.busy.TryLock() {
		return conversation.Turn{}, ErrBusy
	}
	defer d.busy.Unlock()

	if err := d.gate.Check(); err != nil {
		return conversation.Turn{}, fmt.Errorf("remote calls blocked: %w", err)
	}

	release, err := d.limiter.Acquire(ctx, "dispatch")
	if err != nil {
		return conversation.Turn{}, fmt.Errorf("dispatch throttled: %w", err)
	}
	defer release()

	ctx, finish := d.tracer.StartSpan(ctx, "dispatch", map[string]any{
		"chars":       len(text),
		"attachments": len(input.Parts),
	})

	parts, err := inputParts(text, input.Parts)
	if err != nil {
		finish(err)
		return conversation.Turn{}, err
	}

	// History replayed upstream stops before this turn; the new input
	// travels as the request parts.
	history := historyMessages(d.transcript.Snapshot(), maxHistoryTurns)

	userText := text
	if userText == "" {
		userText = attachmentPlaceholder
	}
	if _, err := d.transcript.Append(conversation.Turn{
		Role:  conversation.RoleUser,
		Text:  userText,
		Parts: input.Parts,
	}); err != nil {
		finish(err)
		return conversation.Turn{}, err
	}

	decision, err := d.provider.Decide(ctx, ports.DecideRequest{
		Model:   d.cfg.DecisionModel,
		System:  systemInstruction(d.cfg.Persona, d.cfg.Language),
		History: history,
		Parts:   parts,
		Tools:   Specs(),
	})
	if err != nil {
		return d.failTurn(finish, err)
	}

	if decision.Call == nil {
		if strings.TrimSpace(decision.Text) == "" {
			return d.failTurn(finish, fmt.Errorf("provider returned an empty decision"))
		}
		turn, err := d.transcript.Append(conversation.Turn{
			Role: conversation.RoleModel,
			Text: decision.Text,
		})
		if err != nil {
			return d.failTurn(finish, err)
		}
		finish(nil)
		return turn, nil
	}

	call := decision.Call
	if !KnownTool(call.Name) {
		d.tracer.Event(ctx, "unknown_tool", map[string]any{"tool": call.Name})
		turn, err := d.transcript.Append(conversation.Turn{
			Role: conversation.RoleModel,
			Text: msgNoCapability,
		})
		if err != nil {
			return d.failTurn(finish, err)
		}
		finish(nil)
		return turn, nil
	}

	if spec, ok := specFor(call.Name); ok {
		if err := ValidateJSON(call.Args, spec.JSONSchema); err != nil {
			return d.failTurn(finish, &ParseError{Tool: ToolName(call.Name), Err: err})
		}
	}

	d.tracer.Event(ctx, "tool_selected", map[string]any{"tool": call.Name})
	result, err := d.runTool(ctx, ToolName(call.Name), call.Args)
	if err != nil {
		return d.failTurn(finish, fmt.Errorf("tool %s failed: %w", call.Name, err))
	}

	report := conversation.NewActionResult(call.Name, text, toolSummary(ToolName(call.Name)))
	turn := conversation.Turn{
		Role:   conversation.RoleModel,
		Text:   result.Text,
		Tool:   &conversation.ToolUse{Name: call.Name, Payload: result},
		Report: &report,
	}
	if result.Image != nil {
		turn.Parts = []media.FilePart{{
			MIMEType: result.Image.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(result.Image.Data),
		}}
	}
	stored, err := d.transcript.Append(turn)
	if err != nil {
		return d.failTurn(finish, err)
	}

	d.actions.Add(report)
	finish(nil)
	return stored, nil
}

// StreamReply streams a plain conversational reply for input, bypassing
// action selection. The dispatcher stays busy until the stream ends; the
// accumulated reply is appended to the transcript when it does.
func (d *Dispatcher) StreamReply(ctx context.Context, input Input) (<-chan ports.ChatDelta, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Parts) == 0 {
		return nil, ErrEmptyPrompt
	}

	if !d.busy.TryLock() {
		return nil, ErrBusy
	}

	if err := d.gate.Check(); err != nil {
		d.busy.Unlock()
		return nil, fmt.Errorf("remote calls blocked: %w", err)
	}

	release, err := d.limiter.Acquire(ctx, "chat")
	if err != nil {
		d.busy.Unlock()
		return nil, fmt.Errorf("chat throttled: %w", err)
	}

	parts, err := inputParts(text, input.Parts)
	if err != nil {
		release()
		d.busy.Unlock()
		return nil, err
	}

	history := historyMessages(d.transcript.Snapshot(), maxHistoryTurns)

	userText := text
	if userText == "" {
		userText = attachmentPlaceholder
	}
	if _, err := d.transcript.Append(conversation.Turn{
		Role:  conversation.RoleUser,
		Text:  userText,
		Parts: input.Parts,
	}); err != nil {
		release()
		d.busy.Unlock()
		return nil, err
	}

	deltas, err := d.provider.StreamChat(ctx, ports.ChatRequest{
		Model:   d.cfg.ChatModel,
		System:  systemInstruction(d.cfg.Persona, d.cfg.Language),
		History: history,
		Parts:   parts,
	})
	if err != nil {
		release()
		d.busy.Unlock()
		if errors.Is(err, ports.ErrCredentialInvalid) {
			d.gate.Invalidate(err.Error())
		}
		return nil, fmt.Errorf("chat stream failed: %w", err)
	}

	out := make(chan ports.ChatDelta, 8)
	go func() {
		defer d.busy.Unlock()
		defer release()
		defer close(out)

		var reply strings.Builder
		for delta := range deltas {
			if delta.Err != nil {
				if errors.Is(delta.Err, ports.ErrCredentialInvalid) {
					d.gate.Invalidate(delta.Err.Error())
				}
				d.logger.Warn().Err(delta.Err).Msg("chat stream failed mid-reply")
				d.appendModelText(msgGenericError)
				out <- delta
				return
			}
			reply.WriteString(delta.Text)
			out <- delta
		}
		d.appendModelText(reply.String())
	}()
	return out, nil
}

// failTurn appends an apology turn for a failed dispatch and passes the
// cause through. The action log is deliberately left untouched: only
// completed actions are audited. A credential rejection also trips the key
// gate so later calls fail closed; a reply that failed validation names the
// capability that produced it.
func (d *Dispatcher) failTurn(finish func(error), cause error) (conversation.Turn, error) {
	var parseErr *ParseError

	msg := msgGenericError
	if errors.Is(cause, ports.ErrCredentialInvalid) {
		d.gate.Invalidate(cause.Error())
		msg = msgCredentialProblem
	} else if errors.Is(cause, ports.ErrCredentialMissing) {
		msg = msgCredentialProblem
	} else if errors.As(cause, &parseErr) {
		msg = fmt.Sprintf(msgParseProblem, toolLabel(parseErr.Tool))
	}

	d.logger.Error().Err(cause).Msg("dispatch failed")
	turn := d.appendModelText(msg)
	finish(cause)
	return turn, cause
}

func (d *Dispatcher) appendModelText(text string) conversation.Turn {
	if strings.TrimSpace(text) == "" {
		return conversation.Turn{}
	}
	turn, err := d.transcript.Append(conversation.Turn{
		Role: conversation.RoleModel,
		Text: text,
	})
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to append model turn")
	}
	return turn
}

// runTool executes one capability and returns its result.
func (d *Dispatcher) runTool(ctx context.Context, name ToolName, args json.RawMessage) (ToolResult, error) {
	switch name {
	case ToolWebSearch:
		var a webSearchArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return ToolResult{}, fmt.Errorf("bad arguments: %w", err)
		}
		res, err := d.provider.GroundedSearch(ctx, d.cfg.ChatModel, a.Query)
		if err != nil {
			return ToolResult{}, err
		}
		return ToolResult{
			Kind:    ResultKindSearch,
			Text:    res.Text,
			Sources: res.Sources,
		}, nil

	case ToolDeepReasoning:
		var a deepReasoningArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return ToolResult{}, fmt.Errorf("bad arguments: %w", err)
		}
		system := systemInstruction(d.cfg.Persona, d.cfg.Language) +
			"\nWork through the problem carefully step by step before giving the final answer."
		text, err := d.generateText(ctx, system, a.Question)
		if err != nil {
			return ToolResult{}, err
		}
		return ToolResult{Kind: ResultKindText, Text: text}, nil

	case ToolGenerateImage:
		var a generateImageArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return ToolResult{}, fmt.Errorf("bad arguments: %w", err)
		}
		prompt := a.Prompt
		if a.Style != "" {
			prompt = fmt.Sprintf("%s, %s style", a.Prompt, a.Style)
		}
		res, err := d.provider.GenerateImage(ctx, ports.ImageRequest{
			Model:  d.cfg.ImageModel,
			Prompt: prompt,
		})
		if err != nil {
			return ToolResult{}, err
		}
		text := res.Text
		if strings.TrimSpace(text) == "" {
			text = msgHereIsYourImage
		}
		return ToolResult{Kind: ResultKindImage, Text: text, Image: res.Image}, nil

	case ToolGrowthPlan:
		var a growthPlanArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return ToolResult{}, fmt.Errorf("bad arguments: %w", err)
		}
		prompt := fmt.Sprintf("Build a growth plan. Goal: %s.", a.Goal)
		if a.Timeframe != "" {
			prompt += fmt.Sprintf(" Timeframe: %s.", a.Timeframe)
		}
		if a.Platform != "" {
			prompt += fmt.Sprintf(" Platform: %s.", a.Platform)
		}
		data, err := d.generateStructured(ctx, name, prompt, growthPlanSchema)
		if err != nil {
			return ToolResult{}, err
		}
		var plan struct {
			Title   string `json:"title"`
			Summary string `json:"summary"`
		}
		_ = json.Unmarshal(data, &plan)
		return ToolResult{
			Kind: ResultKindStructured,
			Text: fmt.Sprintf("Büyüme planınız hazır: %s\n\n%s", plan.Title, plan.Summary),
			Data: data,
		}, nil

	case ToolOutreachPlan:
		var a outreachPlanArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return ToolResult{}, fmt.Errorf("bad arguments: %w", err)
		}
		prompt := fmt.Sprintf("Draft an outreach plan for this audience: %s.", a.Audience)
		if a.Objective != "" {
			prompt += fmt.Sprintf(" Objective: %s.", a.Objective)
		}
		if a.Channel != "" {
			prompt += fmt.Sprintf(" Preferred channel: %s.", a.Channel)
		}
		data, err := d.generateStructured(ctx, name, prompt, outreachPlanSchema)
		if err != nil {
			return ToolResult{}, err
		}
		var plan struct {
			Title string `json:"title"`
		}
		_ = json.Unmarshal(data, &plan)
		return ToolResult{
			Kind: ResultKindStructured,
			Text: fmt.Sprintf("Erişim planınız hazır: %s", plan.Title),
			Data: data,
		}, nil

	case ToolCodeArchitecture:
		var a codeArchitectureArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return ToolResult{}, fmt.Errorf("bad arguments: %w", err)
		}
		prompt := fmt.Sprintf("Propose a software architecture for: %s.", a.Project)
		if a.Requirements != "" {
			prompt += fmt.Sprintf(" Requirements: %s.", a.Requirements)
		}
		data, err := d.generateStructured(ctx, name, prompt, codeArchitectureSchema)
		if err != nil {
			return ToolResult{}, err
		}
		var review struct {
			Overview string `json:"overview"`
		}
		_ = json.Unmarshal(data, &review)
		return ToolResult{
			Kind: ResultKindStructured,
			Text: fmt.Sprintf("Mimari önerisi hazır.\n\n%s", review.Overview),
			Data: data,
		}, nil

	case ToolDesktopCommand:
		var a desktopCommandArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return ToolResult{}, fmt.Errorf("bad arguments: %w", err)
		}
		prompt := fmt.Sprintf("Produce a desktop automation command for this task: %s. "+
			"Include a short explanation and any caution the user should know.", a.Task)
		data, err := d.generateStructured(ctx, name, prompt, desktopCommandSchema)
		if err != nil {
			return ToolResult{}, err
		}
		var cmd struct {
			Command     string `json:"command"`
			Explanation string `json:"explanation"`
		}
		_ = json.Unmarshal(data, &cmd)
		return ToolResult{
			Kind: ResultKindStructured,
			Text: fmt.Sprintf("Komut hazır: %s\n%s", cmd.Command, cmd.Explanation),
			Data: data,
		}, nil

	case ToolAutopilotPlan:
		var a autopilotPlanArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return ToolResult{}, fmt.Errorf("bad arguments: %w", err)
		}
		if d.planner == nil {
			return ToolResult{}, fmt.Errorf("post planner is not configured")
		}
		plan, err := d.planner.Plan(ctx, schedule.PlanRequest{
			Topic:     a.Topic,
			Days:      a.Days,
			Platforms: a.Platforms,
		})
		if err != nil {
			if errors.Is(err, schedule.ErrPlanRejected) {
				return ToolResult{}, &ParseError{Tool: name, Err: err}
			}
			return ToolResult{}, err
		}
		data, err := json.Marshal(plan.Posts())
		if err != nil {
			return ToolResult{}, fmt.Errorf("failed to encode plan: %w", err)
		}
		return ToolResult{
			Kind: ResultKindStructured,
			Text: fmt.Sprintf("%d gönderilik otomatik paylaşım planınız hazır.", plan.Len()),
			Data: data,
		}, nil

	default:
		return ToolResult{}, fmt.Errorf("unhandled tool %s", name)
	}
}

// generateText drains a chat stream into a single reply.
func (d *Dispatcher) generateText(ctx context.Context, system, prompt string) (string, error) {
	deltas, err := d.provider.StreamChat(ctx, ports.ChatRequest{
		Model:  d.cfg.ChatModel,
		System: system,
		Parts:  []ports.Part{{Text: prompt}},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for delta := range deltas {
		if delta.Err != nil {
			return "", delta.Err
		}
		b.WriteString(delta.Text)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("provider returned an empty reply")
	}
	return b.String(), nil
}

// generateStructured runs a schema-constrained call and validates the reply
// against the same schema before returning it. A reply that fails validation
// comes back as a ParseError naming the tool.
func (d *Dispatcher) generateStructured(ctx context.Context, tool ToolName, prompt string, schema []byte) (json.RawMessage, error) {
	raw, err := d.provider.GenerateStructured(ctx, ports.StructuredRequest{
		Model:  d.cfg.StructuredModel,
		System: systemInstruction(d.cfg.Persona, d.cfg.Language),
		Prompt: prompt,
		Schema: schema,
	})
	if err != nil {
		return nil, err
	}

	cleaned := json.RawMessage(CleanJSON(string(raw)))
	if err := ValidateJSON(cleaned, schema); err != nil {
		return nil, &ParseError{Tool: tool, Err: err}
	}
	return cleaned, nil
}
