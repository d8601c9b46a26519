package adapters

import (
	"sync"

	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"

	"github.com/rs/zerolog"
)

// StaticKeyGate guards a credential fixed at process start. Once the
// upstream rejects the key the gate trips permanently; only a restart with
// a fresh credential clears it.
type StaticKeyGate struct {
	mu      sync.RWMutex
	key     string
	tripped bool
	reason  string
	logger  zerolog.Logger
}

// NewStaticKeyGate wraps the given credential. An empty key produces a gate
// that reports ErrCredentialMissing on every check.
func NewStaticKeyGate(key string, logger zerolog.Logger) *StaticKeyGate {
	return &StaticKeyGate{key: key, logger: logger}
}

// Check fails closed: no credential or a tripped gate blocks the caller
// before any network traffic.
func (g *StaticKeyGate) Check() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.key == "" {
		return ports.ErrCredentialMissing
	}
	if g.tripped {
		return ports.ErrCredentialInvalid
	}
	return nil
}

// Credential returns the guarded key.
func (g *StaticKeyGate) Credential() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.key
}

// Invalidate trips the gate after an upstream rejection.
func (g *StaticKeyGate) Invalidate(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.tripped {
		return
	}
	g.tripped = true
	g.reason = reason
	g.logger.Error().Str("reason", reason).Msg("credential invalidated, remote calls disabled")
}

// Reason reports why the gate tripped, for diagnostics.
func (g *StaticKeyGate) Reason() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reason
}

// Ensure StaticKeyGate implements the KeyGate interface.
var _ ports.KeyGate = (*StaticKeyGate)(nil)
