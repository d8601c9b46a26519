package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActionStatus is the outcome recorded on an audit entry.
type ActionStatus string

const (
	ActionSuccess ActionStatus = "success"
	ActionFailure ActionStatus = "failure"
)

// ActionResult is the audit record of one dispatched action: operation id,
// the prompt that triggered it, the tool that ran, and a short summary.
// Records are immutable once created, and only completed actions produce
// one; failed dispatches leave no trace here.
type ActionResult struct {
	ID        string
	Tool      string
	Prompt    string
	Status    ActionStatus
	Summary   string
	CreatedAt time.Time
}

// NewActionResult builds the audit record for a completed action, with a
// fresh operation id and timestamp.
func NewActionResult(tool, prompt, summary string) ActionResult {
	return ActionResult{
		ID:        uuid.NewString(),
		Tool:      tool,
		Prompt:    prompt,
		Status:    ActionSuccess,
		Summary:   summary,
		CreatedAt: time.Now(),
	}
}

// ActionLog is the append-only audit trail of completed actions.
type ActionLog struct {
	mu      sync.RWMutex
	entries []ActionResult
}

// NewActionLog returns an empty action log.
func NewActionLog() *ActionLog {
	return &ActionLog{}
}

// Add appends an audit entry.
func (l *ActionLog) Add(result ActionResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, result)
}

// Snapshot returns a copy of the audit trail in record order.
func (l *ActionLog) Snapshot() []ActionResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ActionResult, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of recorded actions.
func (l *ActionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
