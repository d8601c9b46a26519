// Package assist implements the action-dispatch core: it sends each user
// turn through an action-selection call, routes the model's first function
// call to the matching capability, and keeps the conversation transcript
// and action audit log consistent while doing so.
package assist

import (
	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"
)

// ToolName identifies one capability in the closed tool set. Anything the
// model invents outside this set is answered with a polite refusal instead
// of an error.
type ToolName string

const (
	ToolGrowthPlan       ToolName = "growth_plan"
	ToolWebSearch        ToolName = "web_search"
	ToolDeepReasoning    ToolName = "deep_reasoning"
	ToolOutreachPlan     ToolName = "outreach_plan"
	ToolCodeArchitecture ToolName = "code_architecture"
	ToolGenerateImage    ToolName = "generate_image"
	ToolAutopilotPlan    ToolName = "autopilot_plan"
	ToolDesktopCommand   ToolName = "desktop_command"
)

// toolSpecs declares every capability to the model. Each entry carries the
// argument schema sent upstream and used locally to validate the returned
// call before it runs.
var toolSpecs = []ports.ToolSpec{
	{
		Name:        string(ToolGrowthPlan),
		Description: "Build a structured audience growth plan for a goal over a timeframe.",
		JSONSchema: []byte(`{
			"type": "object",
			"properties": {
				"goal": {"type": "string", "description": "What the user wants to grow, e.g. a channel or product"},
				"timeframe": {"type": "string", "description": "Planning horizon, e.g. '4 weeks'"},
				"platform": {"type": "string", "description": "Primary platform the plan targets"}
			},
			"required": ["goal"]
		}`),
	},
	{
		Name:        string(ToolWebSearch),
		Description: "Answer a question that needs fresh information from the web, with sources.",
		JSONSchema: []byte(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The search query in the user's words"}
			},
			"required": ["query"]
		}`),
	},
	{
		Name:        string(ToolDeepReasoning),
		Description: "Work through a hard question step by step before answering.",
		JSONSchema: []byte(`{
			"type": "object",
			"properties": {
				"question": {"type": "string", "description": "The problem to reason about"}
			},
			"required": ["question"]
		}`),
	},
	{
		Name:        string(ToolOutreachPlan),
		Description: "Draft an outreach plan with ready-to-send messages for an audience.",
		JSONSchema: []byte(`{
			"type": "object",
			"properties": {
				"audience": {"type": "string", "description": "Who to reach"},
				"objective": {"type": "string", "description": "What the outreach should achieve"},
				"channel": {"type": "string", "description": "Preferred channel, e.g. email or dm"}
			},
			"required": ["audience"]
		}`),
	},
	{
		Name:        string(ToolCodeArchitecture),
		Description: "Propose a software architecture for a described project.",
		JSONSchema: []byte(`{
			"type": "object",
			"properties": {
				"project": {"type": "string", "description": "What is being built"},
				"requirements": {"type": "string", "description": "Key constraints and requirements"}
			},
			"required": ["project"]
		}`),
	},
	{
		Name:        string(ToolGenerateImage),
		Description: "Generate an image from a description.",
		JSONSchema: []byte(`{
			"type": "object",
			"properties": {
				"prompt": {"type": "string", "description": "What the image should show"},
				"style": {"type": "string", "description": "Optional visual style"}
			},
			"required": ["prompt"]
		}`),
	},
	{
		Name:        string(ToolAutopilotPlan),
		Description: "Plan a batch of social posts to publish automatically over the coming days.",
		JSONSchema: []byte(`{
			"type": "object",
			"properties": {
				"topic": {"type": "string", "description": "What the posts are about"},
				"days": {"type": "integer", "description": "How many days the plan covers"},
				"platforms": {
					"type": "array",
					"description": "Platforms to post on",
					"items": {"type": "string"}
				}
			},
			"required": ["topic"]
		}`),
	},
	{
		Name:        string(ToolDesktopCommand),
		Description: "Turn a desktop automation request into a concrete command with an explanation.",
		JSONSchema: []byte(`{
			"type": "object",
			"properties": {
				"task": {"type": "string", "description": "What the user wants done on their machine"}
			},
			"required": ["task"]
		}`),
	},
}

// Specs returns the tool declarations sent with every decision call.
func Specs() []ports.ToolSpec {
	out := make([]ports.ToolSpec, len(toolSpecs))
	copy(out, toolSpecs)
	return out
}

// KnownTool reports whether name belongs to the closed tool set.
func KnownTool(name string) bool {
	for _, spec := range toolSpecs {
		if spec.Name == name {
			return true
		}
	}
	return false
}

// specFor returns the declaration for name.
func specFor(name string) (ports.ToolSpec, bool) {
	for _, spec := range toolSpecs {
		if spec.Name == name {
			return spec, true
		}
	}
	return ports.ToolSpec{}, false
}

// toolLabels are the user-facing names the fallback messages use.
var toolLabels = map[ToolName]string{
	ToolGrowthPlan:       "büyüme planı",
	ToolWebSearch:        "web araması",
	ToolDeepReasoning:    "derin analiz",
	ToolOutreachPlan:     "erişim planı",
	ToolCodeArchitecture: "mimari önerisi",
	ToolGenerateImage:    "görsel oluşturma",
	ToolAutopilotPlan:    "otomatik paylaşım planı",
	ToolDesktopCommand:   "masaüstü komutu",
}

func toolLabel(name ToolName) string {
	if label, ok := toolLabels[name]; ok {
		return label
	}
	return string(name)
}

// toolSummaries are the fixed audit lines recorded when an action
// completes.
var toolSummaries = map[ToolName]string{
	ToolGrowthPlan:       "Büyüme planı oluşturuldu.",
	ToolWebSearch:        "Web araması yapıldı.",
	ToolDeepReasoning:    "Derinlemesine analiz tamamlandı.",
	ToolOutreachPlan:     "Erişim planı oluşturuldu.",
	ToolCodeArchitecture: "Mimari önerisi oluşturuldu.",
	ToolGenerateImage:    "Görsel oluşturuldu.",
	ToolAutopilotPlan:    "Otomatik paylaşım planı oluşturuldu.",
	ToolDesktopCommand:   "Masaüstü komutu hazırlandı.",
}

func toolSummary(name ToolName) string {
	if summary, ok := toolSummaries[name]; ok {
		return summary
	}
	return string(name)
}

// Argument shapes the dispatcher decodes tool calls into.

type growthPlanArgs struct {
	Goal      string `json:"goal"`
	Timeframe string `json:"timeframe"`
	Platform  string `json:"platform"`
}

type webSearchArgs struct {
	Query string `json:"query"`
}

type deepReasoningArgs struct {
	Question string `json:"question"`
}

type outreachPlanArgs struct {
	Audience  string `json:"audience"`
	Objective string `json:"objective"`
	Channel   string `json:"channel"`
}

type codeArchitectureArgs struct {
	Project      string `json:"project"`
	Requirements string `json:"requirements"`
}

type generateImageArgs struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

type autopilotPlanArgs struct {
	Topic     string   `json:"topic"`
	Days      int      `json:"days"`
	Platforms []string `json:"platforms"`
}

type desktopCommandArgs struct {
	Task string `json:"task"`
}

// Response schemas for the structured capabilities. The same bytes shape
// the provider's constrained output and validate what comes back.

var growthPlanSchema = []byte(`{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"summary": {"type": "string"},
		"weeks": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"week": {"type": "integer"},
					"focus": {"type": "string"},
					"actions": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["week", "focus", "actions"]
			}
		}
	},
	"required": ["title", "summary", "weeks"]
}`)

var outreachPlanSchema = []byte(`{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"audience": {"type": "string"},
		"messages": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"channel": {"type": "string"},
					"subject": {"type": "string"},
					"body": {"type": "string"}
				},
				"required": ["channel", "body"]
			}
		}
	},
	"required": ["title", "audience", "messages"]
}`)

var codeArchitectureSchema = []byte(`{
	"type": "object",
	"properties": {
		"overview": {"type": "string"},
		"components": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"responsibility": {"type": "string"},
					"technology": {"type": "string"}
				},
				"required": ["name", "responsibility"]
			}
		},
		"risks": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["overview", "components"]
}`)

var desktopCommandSchema = []byte(`{
	"type": "object",
	"properties": {
		"command": {"type": "string"},
		"explanation": {"type": "string"},
		"caution": {"type": "string"}
	},
	"required": ["command", "explanation"]
}`)
