// Package conversation holds the in-memory session state: the ordered turn
// transcript and the audit log of completed actions. Both stores are
// append-only; history is never rewritten once recorded.
package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/virtual-assistant/vassist/media"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ErrEmptyTurn is returned when a turn carries neither text nor a tool
// record. Attachments alone do not make a turn renderable.
var ErrEmptyTurn = errors.New("turn must carry text or a tool record")

// ToolUse records that a model turn ran a named tool. The name belongs to
// the dispatcher's closed tool set; Payload carries the tool-specific result
// for rendering.
type ToolUse struct {
	Name    string
	Payload any
}

// Turn is one entry in the conversation transcript. A model turn produced
// by a completed action carries its audit record in Report.
type Turn struct {
	ID        string
	Role      Role
	Text      string
	Parts     []media.FilePart
	Tool      *ToolUse
	Report    *ActionResult
	CreatedAt time.Time
}

// Transcript is the append-only turn history for one session.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append validates and stores a turn, filling in the ID and timestamp when
// the caller left them empty. The stored turn is returned.
func (t *Transcript) Append(turn Turn) (Turn, error) {
	if turn.Text == "" && turn.Tool == nil {
		return Turn{}, ErrEmptyTurn
	}
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, turn)
	return turn, nil
}

// Snapshot returns a copy of the transcript in append order. Callers may
// mutate the returned slice freely.
func (t *Transcript) Snapshot() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	for i := range out {
		if len(out[i].Parts) > 0 {
			parts := make([]media.FilePart, len(out[i].Parts))
			copy(parts, out[i].Parts)
			out[i].Parts = parts
		}
	}
	return out
}

// Len reports the number of stored turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Last returns the most recent turn, if any.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}
