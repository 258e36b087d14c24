package command

import (
	"errors"
	"fmt"

	"github.com/roach88/turtle/internal/event"
)

var (
	// ErrUnknownAction is returned for a nil Action.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidCommand wraps every Parse failure.
	ErrInvalidCommand = errors.New("invalid command")
)

// ReplayErrorCode categorizes replay failures.
type ReplayErrorCode string

const (
	// ErrCodeUnknownEvent indicates an event the transition functions
	// cannot apply (nil or a foreign type).
	ErrCodeUnknownEvent ReplayErrorCode = "UNKNOWN_EVENT"

	// ErrCodeInvalidColor indicates a ColorChanged with an undeclared color.
	ErrCodeInvalidColor ReplayErrorCode = "INVALID_COLOR"

	// ErrCodeInvalidNumber indicates a NaN or infinite distance or angle,
	// or a move whose end position is not finite.
	ErrCodeInvalidNumber ReplayErrorCode = "INVALID_NUMBER"
)

// ReplayError reports a stored event that cannot be folded into state.
// Replay stops at the first one rather than skipping it.
type ReplayError struct {
	Code ReplayErrorCode

	// Message is a human-readable description.
	Message string

	// Index is the event's position in the replayed sequence.
	Index int

	// Event is the offending event; nil for a nil event.
	Event event.Event
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("%s: %s (index=%d)", e.Code, e.Message, e.Index)
}

// IsReplayError returns true if err is or wraps a *ReplayError.
func IsReplayError(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}
