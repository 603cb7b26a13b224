package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means neither a per-call key nor the process
	// default was available. Raised before any network attempt.
	ErrMissingCredential = errors.New("no gemini api key provided (user or system)")

	// ErrQuotaExceeded maps the provider's rate/quota exhaustion responses.
	ErrQuotaExceeded = errors.New("gemini quota exceeded, try a different key or retry later")

	// ErrInvalidCredential means the provider rejected the key as malformed
	// or unauthorized.
	ErrInvalidCredential = errors.New("gemini api key rejected")
)

// ProviderError is the catch-all for provider-side failures that are not part
// of the closed taxonomy above. The original cause is kept for diagnostics
// but callers should not surface it to end users.
type ProviderError struct {
	Op     string
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("gemini %s failed (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("gemini %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
