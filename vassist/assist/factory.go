package assist

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/adapters"
	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/config"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/schedule"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/speech"

	"github.com/rs/zerolog"
)

// Factory creates assist components from configuration.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewFactory creates a factory bound to cfg.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateDispatcher wires a dispatcher with the configured models, limiter,
// and tracer. The provider and gate are injected because they carry the
// credential.
func (f *Factory) CreateDispatcher(provider ports.Provider, gate ports.KeyGate) *Dispatcher {
	planner := schedule.NewPlanner(
		provider,
		f.cfg.Assistant.StructuredModel,
		f.cfg.Schedule.Platforms,
		f.logger,
	)

	return NewDispatcher(
		Config{
			ChatModel:       f.cfg.Assistant.ChatModel,
			DecisionModel:   f.cfg.Assistant.DecisionModel,
			StructuredModel: f.cfg.Assistant.StructuredModel,
			ImageModel:      f.cfg.Assistant.ImageModel,
			Language:        f.cfg.Assistant.Language,
			Persona:         f.cfg.Assistant.Persona,
		},
		provider,
		gate,
		f.createRateLimiter(),
		f.createTracer(),
		planner,
		f.logger,
	)
}

// CreatePlanner wires a standalone post planner, for callers that plan
// batches outside a conversation.
func (f *Factory) CreatePlanner(provider ports.Provider) *schedule.Planner {
	return schedule.NewPlanner(
		provider,
		f.cfg.Assistant.StructuredModel,
		f.cfg.Schedule.Platforms,
		f.logger,
	)
}

// CreateVideoPoller wires a poller with the configured cadence.
func (f *Factory) CreateVideoPoller(provider ports.Provider, gate ports.KeyGate) *VideoPoller {
	return NewVideoPoller(
		provider,
		gate,
		f.createRateLimiter(),
		f.createTracer(),
		f.cfg.Video.PollInterval,
		f.cfg.Video.StatusInterval,
		f.logger,
	)
}

// CreateSynthesizer wires a synthesizer with the configured voice
// preferences and utterance cache.
func (f *Factory) CreateSynthesizer(backend speech.Backend, player speech.Player) *speech.Synthesizer {
	return speech.NewSynthesizer(backend, player, speech.Options{
		Language:        f.cfg.Speech.Language,
		PreferredGender: f.cfg.Speech.PreferredGender,
		CacheCapacity:   f.cfg.Speech.CacheCapacity,
		CacheTTL:        time.Duration(f.cfg.Speech.CacheTTLSeconds) * time.Second,
	}, f.logger)
}

// CreateRecognizer wires a recognizer in the configured continuous mode.
// With interim results disabled, snapshots reach onUpdate with interim text
// blanked, so displays only ever show finalized words.
func (f *Factory) CreateRecognizer(engine speech.Engine, onUpdate func(speech.Snapshot)) *speech.Recognizer {
	if !f.cfg.Speech.InterimResults && onUpdate != nil {
		inner := onUpdate
		onUpdate = func(snap speech.Snapshot) {
			snap.Interim = ""
			inner(snap)
		}
	}
	return speech.NewRecognizer(engine, f.cfg.Speech.Continuous, f.logger, onUpdate)
}

func (f *Factory) createRateLimiter() ports.RateLimiter {
	if !f.cfg.Limits.RateLimitEnabled {
		return &noOpRateLimiter{}
	}
	return adapters.NewTokenBucket(f.cfg.Limits.RateLimitCapacity, f.cfg.Limits.RateLimitRefillRate)
}

func (f *Factory) createTracer() ports.Tracer {
	if !f.cfg.Assistant.EnableTracing {
		return &noOpTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}

// noOpRateLimiter admits every call when throttling is disabled.
type noOpRateLimiter struct{}

func (r *noOpRateLimiter) Acquire(ctx context.Context, key string) (release func(), err error) {
	return func() {}, nil
}

// noOpTracer drops all spans and events when tracing is disabled.
type noOpTracer struct{}

func (t *noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (t *noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

// Ensure the no-op types implement their interfaces.
var (
	_ ports.RateLimiter = (*noOpRateLimiter)(nil)
	_ ports.Tracer      = (*noOpTracer)(nil)
)
