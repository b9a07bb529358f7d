package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned before any network I/O when no API key is configured.
	ErrMissingCredential = errors.New("inference: API key is not configured (set GEMINI_API_KEY)")
	// ErrEmptyResponse means the provider answered without any text.
	ErrEmptyResponse = errors.New("inference: provider returned no text")
)

// TransportError wraps a network or provider-level failure.
type TransportError struct {
	Engine string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inference: %s request failed: %v", e.Engine, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CheckCredential is the startup form of the credential precondition.
func CheckCredential(key string) error {
	if key == "" {
		return ErrMissingCredential
	}
	return nil
}
