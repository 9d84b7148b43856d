package model

import "errors"

var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrNoSession     = errors.New("no active session")
)

// ValidationError rejects one answer at one step. Message is the user-facing
// text; the engine re-prompts the same step and never propagates it further.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
