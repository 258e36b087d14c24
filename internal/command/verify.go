package command

import (
	"errors"
	"fmt"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

// ErrInconsistent is wrapped by Verify failures.
var ErrInconsistent = errors.New("inconsistent moved event")

// Verify replays a full turtle log, MovedEvents included, and checks that
// every MovedEvent is exactly the one Derive produces for the StateChanged
// right before it, and that no position change lacks one. It returns the
// final state.
func Verify(events []event.Event) (turtle.State, error) {
	state := turtle.Initial()
	var pending *event.MovedEvent

	for i, ev := range events {
		switch e := ev.(type) {
		case event.MovedEvent:
			if pending == nil {
				return turtle.State{}, fmt.Errorf("%w: index %d has no preceding move", ErrInconsistent, i)
			}
			if !sameMove(*pending, e) {
				return turtle.State{}, fmt.Errorf("%w: index %d is %s->%s, replay gives %s->%s",
					ErrInconsistent, i, e.Start, e.End, pending.Start, pending.End)
			}
			pending = nil

		case event.StateChanged:
			if pending != nil {
				return turtle.State{}, fmt.Errorf("%w: index %d missing after move", ErrInconsistent, i)
			}
			next, rerr := apply(turtle.Discard, state, e)
			if rerr != nil {
				rerr.Index = i
				return turtle.State{}, rerr
			}
			if moved, ok := Derive(state, next); ok {
				pending = &moved
			}
			state = next

		default:
			return turtle.State{}, &ReplayError{
				Code:    ErrCodeUnknownEvent,
				Message: fmt.Sprintf("cannot verify %T", ev),
				Index:   i,
				Event:   ev,
			}
		}
	}

	if pending != nil {
		return turtle.State{}, fmt.Errorf("%w: log ends before the last move's event", ErrInconsistent)
	}
	return state, nil
}

func sameMove(a, b event.MovedEvent) bool {
	if a.Start != b.Start || a.End != b.End {
		return false
	}
	if a.PenColor == nil || b.PenColor == nil {
		return a.PenColor == nil && b.PenColor == nil
	}
	return *a.PenColor == *b.PenColor
}
