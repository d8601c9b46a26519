// Package speech adapts platform speech engines to the assistant: a
// recognizer that turns microphone sessions into dictated text and a
// synthesizer that voices replies.
package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Event is one recognition update from an engine session. Err marks an
// engine failure; the session is expected to end shortly after.
type Event struct {
	Text  string
	Final bool
	Err   error
}

// Engine is a platform recognition backend. Start opens a capture session
// and returns a channel of events that the engine closes when the session
// ends, whether through Stop or on its own.
type Engine interface {
	Start(ctx context.Context) (<-chan Event, error)
	Stop() error
}

// State is the recognizer's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateListening
)

func (s State) String() string {
	if s == StateListening {
		return "listening"
	}
	return "idle"
}

// Snapshot is a point-in-time view of the recognizer for display.
type Snapshot struct {
	State   State
	Final   string
	Interim string
}

// Display joins finalized text with the current interim hypothesis, which
// keeps already-confirmed words stable on screen while the tail updates.
func (s Snapshot) Display() string {
	if s.Interim == "" {
		return s.Final
	}
	if s.Final == "" {
		return s.Interim
	}
	return s.Final + " " + s.Interim
}

// Recognizer drives an Engine through an idle/listening state machine.
// Final results accumulate across engine restarts; interim results replace
// each other. An engine error drops back to idle but keeps the text
// dictated so far.
type Recognizer struct {
	mu         sync.Mutex
	engine     Engine
	logger     zerolog.Logger
	continuous bool
	onUpdate   func(Snapshot)

	state   State
	final   string
	interim string
	session int
}

// NewRecognizer wires a recognizer over engine. onUpdate, when non-nil, is
// invoked after every state or text change with a fresh snapshot.
func NewRecognizer(engine Engine, continuous bool, logger zerolog.Logger, onUpdate func(Snapshot)) *Recognizer {
	return &Recognizer{
		engine:     engine,
		continuous: continuous,
		logger:     logger,
		onUpdate:   onUpdate,
	}
}

// Start moves the recognizer to listening. Starting while already listening
// is a no-op, which lets a single control act as a toggle without racing.
func (r *Recognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateListening {
		r.mu.Unlock()
		return nil
	}

	events, err := r.engine.Start(ctx)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to start recognition: %w", err)
	}

	r.state = StateListening
	r.session++
	session := r.session
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	go r.consume(ctx, events, session)
	return nil
}

// Stop moves the recognizer back to idle. Stopping while idle is a no-op.
// Finalized text survives the stop so the caller can still read it.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	if r.state == StateIdle {
		r.mu.Unlock()
		return nil
	}
	r.state = StateIdle
	r.interim = ""
	r.session++
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	if err := r.engine.Stop(); err != nil {
		return fmt.Errorf("failed to stop recognition: %w", err)
	}
	return nil
}

// Toggle starts when idle and stops when listening.
func (r *Recognizer) Toggle(ctx context.Context) error {
	r.mu.Lock()
	listening := r.state == StateListening
	r.mu.Unlock()

	if listening {
		return r.Stop()
	}
	return r.Start(ctx)
}

// Snapshot returns the current state and accumulated text.
func (r *Recognizer) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Text returns the finalized transcript so far.
func (r *Recognizer) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.final
}

// Reset clears accumulated text without changing state.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	r.final = ""
	r.interim = ""
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.notify(snap)
}

func (r *Recognizer) consume(ctx context.Context, events <-chan Event, session int) {
	for ev := range events {
		r.apply(ev, session)
	}
	r.handleEnd(ctx, session)
}

func (r *Recognizer) apply(ev Event, session int) {
	r.mu.Lock()
	if session != r.session {
		r.mu.Unlock()
		return
	}

	if ev.Err != nil {
		// Engine failure: back to idle, keep what was already finalized.
		// Bumping the session drops any events still in flight.
		r.logger.Warn().Err(ev.Err).Msg("speech recognition error")
		r.state = StateIdle
		r.interim = ""
		r.session++
		snap := r.snapshotLocked()
		r.mu.Unlock()
		r.notify(snap)
		return
	}

	if ev.Final {
		text := strings.TrimSpace(ev.Text)
		if text != "" {
			if r.final == "" {
				r.final = text
			} else {
				r.final += " " + text
			}
		}
		r.interim = ""
	} else {
		r.interim = ev.Text
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.notify(snap)
}

func (r *Recognizer) handleEnd(ctx context.Context, session int) {
	r.mu.Lock()
	if session != r.session || r.state != StateListening {
		r.mu.Unlock()
		return
	}

	if !r.continuous {
		r.state = StateIdle
		r.interim = ""
		snap := r.snapshotLocked()
		r.mu.Unlock()
		r.notify(snap)
		return
	}

	// Continuous mode: the engine ended on its own, start a fresh session.
	events, err := r.engine.Start(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to restart recognition")
		r.state = StateIdle
		r.interim = ""
		snap := r.snapshotLocked()
		r.mu.Unlock()
		r.notify(snap)
		return
	}
	r.session++
	next := r.session
	r.mu.Unlock()

	go r.consume(ctx, events, next)
}

func (r *Recognizer) snapshotLocked() Snapshot {
	return Snapshot{State: r.state, Final: r.final, Interim: r.interim}
}

func (r *Recognizer) notify(snap Snapshot) {
	if r.onUpdate != nil {
		r.onUpdate(snap)
	}
}
