package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// ErrPlanRejected is returned when the model's plan reply fails schema
// validation. Callers match on it to tell a malformed reply from a
// transport failure.
var ErrPlanRejected = errors.New("post plan rejected")

// Slot is a coarse time of day the model schedules posts into. Concrete
// clock times are assigned locally so the plan stays deterministic.
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotNoon    Slot = "noon"
	SlotEvening Slot = "evening"
)

// planSchema constrains the model's reply and validates it locally.
var planSchema = []byte(`{
	"type": "object",
	"properties": {
		"posts": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"platform": {"type": "string"},
					"title": {"type": "string"},
					"body": {"type": "string"},
					"hashtags": {"type": "array", "items": {"type": "string"}},
					"day": {"type": "integer", "description": "1-based day offset from today"},
					"slot": {"type": "string", "enum": ["morning", "noon", "evening"]}
				},
				"required": ["platform", "title", "body", "day", "slot"]
			}
		}
	},
	"required": ["posts"]
}`)

type wirePlan struct {
	Posts []wirePost `json:"posts"`
}

type wirePost struct {
	Platform string   `json:"platform"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Hashtags []string `json:"hashtags"`
	Day      int      `json:"day"`
	Slot     Slot     `json:"slot"`
}

// PlanRequest describes the batch of posts to plan.
type PlanRequest struct {
	Topic     string
	Days      int
	Platforms []string
}

// Planner turns a topic into a scheduled batch of posts via structured
// generation.
type Planner struct {
	provider  ports.Provider
	model     string
	platforms []string
	logger    zerolog.Logger
}

// NewPlanner wires a planner over provider. defaultPlatforms is used when a
// request names none.
func NewPlanner(provider ports.Provider, model string, defaultPlatforms []string, logger zerolog.Logger) *Planner {
	return &Planner{
		provider:  provider,
		model:     model,
		platforms: defaultPlatforms,
		logger:    logger,
	}
}

// Plan asks the model for a post batch and schedules it starting tomorrow.
func (pl *Planner) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("plan topic is required")
	}

	days := req.Days
	if days <= 0 {
		days = 7
	}
	platforms := req.Platforms
	if len(platforms) == 0 {
		platforms = pl.platforms
	}

	prompt := fmt.Sprintf(
		"Plan social media posts about %q covering %d days on these platforms: %s. "+
			"Spread the posts across days and time slots, vary the angle per platform, "+
			"and keep each body under 500 characters.",
		req.Topic, days, strings.Join(platforms, ", "),
	)

	raw, err := pl.provider.GenerateStructured(ctx, ports.StructuredRequest{
		Model:  pl.model,
		Prompt: prompt,
		Schema: planSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate post plan: %w", err)
	}

	raw = json.RawMessage(stripFences(string(raw)))
	if err := validatePlan(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanRejected, err)
	}

	var wire wirePlan
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode post plan: %w", err)
	}

	base := time.Now()
	posts := make([]Post, 0, len(wire.Posts))
	for _, wp := range wire.Posts {
		posts = append(posts, Post{
			Platform:     strings.ToLower(wp.Platform),
			Title:        wp.Title,
			Body:         wp.Body,
			Hashtags:     wp.Hashtags,
			ScheduledFor: ScheduleAt(base, wp.Day, wp.Slot),
		})
	}

	pl.logger.Info().Str("topic", req.Topic).Int("posts", len(posts)).Msg("post plan generated")
	return NewPlan(req.Topic, posts), nil
}

// stripFences removes the markdown code fences models sometimes wrap
// around JSON replies even in constrained mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func validatePlan(doc json.RawMessage) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(planSchema),
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
		return fmt.Errorf("%s", strings.Join(details, "; "))
	}
	return nil
}

// ScheduleAt maps a 1-based day offset and slot onto a concrete local time
// on top of base's date. Day values below 1 are clamped to the first day.
func ScheduleAt(base time.Time, day int, slot Slot) time.Time {
	if day < 1 {
		day = 1
	}
	date := base.AddDate(0, 0, day)

	hour, minute := 18, 0
	switch slot {
	case SlotMorning:
		hour, minute = 9, 0
	case SlotNoon:
		hour, minute = 12, 30
	case SlotEvening:
		hour, minute = 18, 0
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, base.Location())
}
