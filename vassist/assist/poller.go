package assist

import (
	"context"
	"errors"
	"fmt"
	"time"

	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// defaultStatusLines rotate on screen while a render is in flight, purely
// for presentation. They carry no state; progress comes only from polling.
var defaultStatusLines = []string{
	"Sahne kuruluyor...",
	"Kareler işleniyor...",
	"Işıklar ayarlanıyor...",
	"Renkler derinleştiriliyor...",
	"Son dokunuşlar yapılıyor...",
}

// VideoResult is a finished render.
type VideoResult struct {
	Data      []byte
	MIMEType  string
	Operation *ports.VideoOperation
}

// VideoPoller runs a render job end to end: submit, poll until the
// operation completes, then download. Polling has no attempt cap; only the
// caller's context cuts a render short.
type VideoPoller struct {
	provider       ports.Provider
	gate           ports.KeyGate
	limiter        ports.RateLimiter
	tracer         ports.Tracer
	logger         zerolog.Logger
	pollInterval   time.Duration
	statusInterval time.Duration
	statusLines    []string
}

// NewVideoPoller wires a poller. Intervals at or below zero fall back to
// 10s polls and 3s status rotation.
func NewVideoPoller(
	provider ports.Provider,
	gate ports.KeyGate,
	limiter ports.RateLimiter,
	tracer ports.Tracer,
	pollInterval, statusInterval time.Duration,
	logger zerolog.Logger,
) *VideoPoller {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if statusInterval <= 0 {
		statusInterval = 3 * time.Second
	}
	return &VideoPoller{
		provider:       provider,
		gate:           gate,
		limiter:        limiter,
		tracer:         tracer,
		logger:         logger,
		pollInterval:   pollInterval,
		statusInterval: statusInterval,
		statusLines:    defaultStatusLines,
	}
}

// Run submits req and blocks until the render finishes, fails, or ctx is
// canceled. onStatus, when non-nil, receives the rotating status line.
func (p *VideoPoller) Run(ctx context.Context, req ports.VideoRequest, onStatus func(string)) (*VideoResult, error) {
	if err := p.gate.Check(); err != nil {
		return nil, fmt.Errorf("remote calls blocked: %w", err)
	}

	release, err := p.limiter.Acquire(ctx, "video")
	if err != nil {
		return nil, fmt.Errorf("video throttled: %w", err)
	}
	defer release()

	ctx, finish := p.tracer.StartSpan(ctx, "video_generation", map[string]any{
		"model":        req.Model,
		"aspect_ratio": req.AspectRatio,
	})

	op, err := p.provider.StartVideo(ctx, req)
	if err != nil {
		p.tripOnCredential(err)
		finish(err)
		return nil, fmt.Errorf("failed to start video: %w", err)
	}
	p.logger.Info().Str("operation", op.Name).Msg("video render submitted")

	// The rotator runs beside the poll loop and is joined before Run
	// returns, so onStatus is never called after completion.
	statusCtx, stopStatus := context.WithCancel(ctx)
	var wg conc.WaitGroup
	wg.Go(func() { p.rotateStatus(statusCtx, onStatus) })
	defer func() {
		stopStatus()
		wg.Wait()
	}()

	pollTicker := time.NewTicker(p.pollInterval)
	defer pollTicker.Stop()

	polls := 0
	for !op.Done {
		select {
		case <-ctx.Done():
			finish(ctx.Err())
			return nil, ctx.Err()
		case <-pollTicker.C:
			op, err = p.provider.PollVideo(ctx, op)
			if err != nil {
				p.tripOnCredential(err)
				finish(err)
				return nil, fmt.Errorf("failed to poll video: %w", err)
			}
			polls++
		}
	}
	p.tracer.Event(ctx, "video_done", map[string]any{"polls": polls})

	if op.Err != "" {
		err := fmt.Errorf("video generation failed: %s", op.Err)
		finish(err)
		return nil, err
	}

	data, err := p.provider.FetchVideo(ctx, op)
	if err != nil {
		p.tripOnCredential(err)
		finish(err)
		return nil, fmt.Errorf("failed to download video: %w", err)
	}

	finish(nil)
	return &VideoResult{Data: data, MIMEType: "video/mp4", Operation: op}, nil
}

// rotateStatus feeds onStatus one line per status interval, starting
// immediately with the first, until ctx is canceled.
func (p *VideoPoller) rotateStatus(ctx context.Context, onStatus func(string)) {
	if onStatus == nil || len(p.statusLines) == 0 {
		return
	}

	ticker := time.NewTicker(p.statusInterval)
	defer ticker.Stop()

	onStatus(p.statusLines[0])
	for idx := 1; ; idx++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			onStatus(p.statusLines[idx%len(p.statusLines)])
		}
	}
}

func (p *VideoPoller) tripOnCredential(err error) {
	if errors.Is(err, ports.ErrCredentialInvalid) {
		p.gate.Invalidate(err.Error())
	}
}
