package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/virtual-assistant/vassist/media"

	"github.com/rs/zerolog"
)

// Voice describes one synthesis voice offered by a backend.
type Voice struct {
	ID      string
	Name    string
	Lang    string
	Gender  string
	Default bool
}

// Backend turns text into playable audio.
type Backend interface {
	Voices(ctx context.Context) ([]Voice, error)
	Synthesize(ctx context.Context, text string, voice Voice) (media.Frame, error)
}

// Player renders synthesized audio. Stop interrupts the current playback
// immediately.
type Player interface {
	Play(ctx context.Context, frame media.Frame) error
	Stop()
}

// NopPlayer discards audio, for headless runs and tests.
type NopPlayer struct{}

func (NopPlayer) Play(context.Context, media.Frame) error { return nil }
func (NopPlayer) Stop()                                   {}

// Options configures voice selection and utterance caching.
type Options struct {
	Language        string
	PreferredGender string
	CacheCapacity   int
	CacheTTL        time.Duration
}

// Synthesizer voices assistant replies. Speaking a new utterance always
// interrupts the one in progress, so replies never queue up behind each
// other. Recently synthesized utterances are served from an LRU cache.
type Synthesizer struct {
	mu      sync.Mutex
	backend Backend
	player  Player
	logger  zerolog.Logger
	opts    Options
	cache   *synthCache
	voices  []Voice
	fetched bool
}

// NewSynthesizer wires a synthesizer over backend and player.
func NewSynthesizer(backend Backend, player Player, opts Options, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		backend: backend,
		player:  player,
		logger:  logger,
		opts:    opts,
		cache:   newSynthCache(opts.CacheCapacity, opts.CacheTTL),
	}
}

// Speak voices text with the preferred voice, interrupting any utterance in
// progress. Empty text is a no-op.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.player.Stop()

	voice := s.voice(ctx)
	key := voice.ID + "\x00" + text

	if frame, ok := s.cache.get(key); ok {
		return s.player.Play(ctx, frame)
	}

	frame, err := s.backend.Synthesize(ctx, text, voice)
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	s.cache.set(key, frame)

	return s.player.Play(ctx, frame)
}

// Stop interrupts the current utterance without clearing the cache.
func (s *Synthesizer) Stop() {
	s.player.Stop()
}

// SetPreferences retunes voice selection for subsequent utterances. Cache
// entries keep the voice that produced them.
func (s *Synthesizer) SetPreferences(lang, gender string) {
	s.mu.Lock()
	s.opts.Language = lang
	s.opts.PreferredGender = gender
	s.mu.Unlock()
}

// voice returns the selected voice, fetching the backend's catalog once.
// A failed fetch falls back to the backend's default voice.
func (s *Synthesizer) voice(ctx context.Context) Voice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fetched {
		voices, err := s.backend.Voices(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to list synthesis voices")
		} else {
			s.voices = voices
		}
		s.fetched = true
	}

	voice, ok := ChooseVoice(s.voices, s.opts.Language, s.opts.PreferredGender)
	if !ok {
		return Voice{}
	}
	return voice
}

// ChooseVoice picks a voice for lang, preferring a gender match within the
// language, then any voice for the language, then the backend default, then
// the first voice offered. ok is false only when voices is empty.
func ChooseVoice(voices []Voice, lang, gender string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	if gender != "" {
		for _, v := range voices {
			if langMatches(v.Lang, lang) && strings.EqualFold(v.Gender, gender) {
				return v, true
			}
		}
	}
	for _, v := range voices {
		if langMatches(v.Lang, lang) {
			return v, true
		}
	}
	for _, v := range voices {
		if v.Default {
			return v, true
		}
	}
	return voices[0], true
}

// langMatches accepts an exact BCP-47 match or a shared primary subtag, so
// a "tr" voice serves a "tr-TR" preference.
func langMatches(voiceLang, want string) bool {
	if want == "" {
		return false
	}
	if strings.EqualFold(voiceLang, want) {
		return true
	}
	return strings.EqualFold(primarySubtag(voiceLang), primarySubtag(want))
}

func primarySubtag(lang string) string {
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		return lang[:i]
	}
	return lang
}
