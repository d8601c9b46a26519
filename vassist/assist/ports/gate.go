package assistports

import "errors"

// ErrCredentialMissing is returned when no upstream credential was ever
// provided.
var ErrCredentialMissing = errors.New("credential missing")

// ErrCredentialInvalid is returned once the upstream has rejected the
// credential. The gate stays tripped until the process restarts with a new
// credential.
var ErrCredentialInvalid = errors.New("credential invalid")

// KeyGate guards the upstream credential. Every remote call checks the gate
// first and fails closed: a missing or invalidated credential blocks the
// call before any network traffic happens.
type KeyGate interface {
	// Check returns nil when calls may proceed, ErrCredentialMissing or
	// ErrCredentialInvalid otherwise.
	Check() error
	// Credential returns the key for adapters that must embed it in URLs.
	Credential() string
	// Invalidate trips the gate after an upstream rejection.
	Invalidate(reason string)
}
