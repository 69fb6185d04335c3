package provider

import "fmt"

// ErrorKind discriminates provider failures so the runner can map each one
// to a specific caller-facing message instead of probing error strings.
type ErrorKind int

const (
	// KindIO covers transport failures, malformed responses, and any
	// provider error without a more specific classification.
	KindIO ErrorKind = iota
	// KindUnsupported means the agent's provider tag is not recognized.
	// Detected before any network call.
	KindUnsupported
	// KindAuth means the provider rejected the credentials.
	KindAuth
	// KindRateLimit means the provider reported quota or billing exhaustion.
	KindRateLimit
)

// Error is a classified provider failure.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}
