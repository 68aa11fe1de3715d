package core

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes turn-engine failures. Kinds double as the wire
// value in the legacy AGENT_ERROR sentinel protocol, so their spellings
// are load-bearing.
type ErrorKind string

const (
	ErrToolNotFound        ErrorKind = "tool_not_found"
	ErrToolTimeout         ErrorKind = "tool_timeout"
	ErrTransientConnection ErrorKind = "broken_resource"
	ErrPairingViolation    ErrorKind = "tool_call_incomplete"
	ErrModelNotFound       ErrorKind = "model_not_found"
	ErrTurnDeadline        ErrorKind = "turn_deadline"
	ErrGeneral             ErrorKind = "general"
)

// Error is a classified turn-engine error.
type Error struct {
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
	Provider string    `json:"provider,omitempty"`
	Err      error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// CorruptsThread reports whether this error class leaves conversation
// state suspect enough to force a fresh thread on the next turn.
func (e *Error) CorruptsThread() bool {
	switch e.Kind {
	case ErrPairingViolation, ErrTurnDeadline:
		return true
	default:
		return false
	}
}

// NewError builds a classified error wrapping err.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewProviderError builds a classified error attributed to a provider.
func NewProviderError(provider string, kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Provider: provider, Err: err}
}

// KindOf classifies an arbitrary error, defaulting to ErrGeneral.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrGeneral
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// IsTransient reports whether err is a transient-connection failure that
// warrants one retry with the underlying channel rebuilt.
func IsTransient(err error) bool {
	return IsKind(err, ErrTransientConnection)
}
