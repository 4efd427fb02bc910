package workflow

import (
	"errors"
	"fmt"
)

// ErrEmptyTranscript rejects a batch parse of blank input before any
// request is issued.
var ErrEmptyTranscript = errors.New("transcript is empty")

// TransitionError reports an event applied in a state that doesn't accept
// it. It is a programming-contract violation rather than a user-facing
// condition: the interface exposed to the user should make it unreachable,
// and callers treat it as fatal to the operation, never as a retry signal.
type TransitionError struct {
	State string
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %q not allowed in state %q", e.Event, e.State)
}
