package adapters

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/virtual-assistant/vassist/media"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/speech"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// defaultSpeechRate is the sample rate the hosted models emit when the
// response MIME type omits one.
const defaultSpeechRate = 24000

// speechVoices is the prebuilt catalog of the hosted speech models. The
// API has no listing endpoint, and every entry speaks all supported
// languages, so Voices labels them with the configured language.
var speechVoices = []speech.Voice{
	{ID: "Zephyr", Name: "Zephyr", Gender: "female"},
	{ID: "Puck", Name: "Puck", Gender: "male"},
	{ID: "Charon", Name: "Charon", Gender: "male"},
	{ID: "Kore", Name: "Kore", Gender: "female", Default: true},
	{ID: "Fenrir", Name: "Fenrir", Gender: "male"},
	{ID: "Leda", Name: "Leda", Gender: "female"},
	{ID: "Orus", Name: "Orus", Gender: "male"},
	{ID: "Aoede", Name: "Aoede", Gender: "female"},
}

// GenAISpeech synthesizes speech on the hosted Gemini API.
type GenAISpeech struct {
	client *genai.Client
	model  string
	lang   string
	logger zerolog.Logger
}

// SpeechBackend derives a speech backend from the provider's client, so
// both share one credential and connection.
func (p *GenAIProvider) SpeechBackend(model, lang string) *GenAISpeech {
	return &GenAISpeech{
		client: p.client,
		model:  model,
		lang:   lang,
		logger: p.logger,
	}
}

// Voices reports the prebuilt catalog, labeled with the configured
// language.
func (s *GenAISpeech) Voices(ctx context.Context) ([]speech.Voice, error) {
	voices := make([]speech.Voice, len(speechVoices))
	copy(voices, speechVoices)
	for i := range voices {
		voices[i].Lang = s.lang
	}
	return voices, nil
}

// Synthesize asks the speech model for an audio rendition of the text.
func (s *GenAISpeech) Synthesize(ctx context.Context, text string, voice speech.Voice) (media.Frame, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
	}
	if voice.ID != "" {
		cfg.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice.ID},
			},
		}
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(text), cfg)
	if err != nil {
		return media.Frame{}, fmt.Errorf("speech call failed: %w", remapErr(err))
	}

	frame, err := frameFromResponse(resp)
	if err != nil {
		return media.Frame{}, err
	}

	s.logger.Debug().
		Str("voice", voice.ID).
		Int("rate", frame.SampleRate).
		Int("bytes", len(frame.PCM)).
		Msg("speech synthesized")
	return frame, nil
}

// frameFromResponse extracts the first inline audio blob as a PCM frame.
// The hosted models answer with raw mono PCM16 and carry the rate in the
// blob's MIME type.
func frameFromResponse(resp *genai.GenerateContentResponse) (media.Frame, error) {
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return media.Frame{
				SampleRate: rateFromMIME(part.InlineData.MIMEType),
				Channels:   1,
				PCM:        part.InlineData.Data,
			}, nil
		}
	}
	return media.Frame{}, fmt.Errorf("no audio in response")
}

// rateFromMIME reads the rate parameter out of a MIME type like
// "audio/L16;codec=pcm;rate=24000".
func rateFromMIME(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		if raw, ok := strings.CutPrefix(strings.TrimSpace(param), "rate="); ok {
			if rate, err := strconv.Atoi(raw); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return defaultSpeechRate
}

var _ speech.Backend = (*GenAISpeech)(nil)
