package command

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

// Replay rebuilds state by folding events over turtle.Initial with side
// effects suppressed. Identical sequences always yield identical states.
func Replay(events []event.StateChanged) (turtle.State, error) {
	state := turtle.Initial()
	for i, ev := range events {
		next, rerr := apply(turtle.Discard, state, ev)
		if rerr != nil {
			rerr.Index = i
			return turtle.State{}, rerr
		}
		state = next
	}
	return state, nil
}

// Apply folds a single event into s, logging through log.
func Apply(log *slog.Logger, s turtle.State, ev event.StateChanged) (turtle.State, error) {
	next, rerr := apply(log, s, ev)
	if rerr != nil {
		return turtle.State{}, rerr
	}
	return next, nil
}

func apply(log *slog.Logger, s turtle.State, ev event.StateChanged) (turtle.State, *ReplayError) {
	switch e := ev.(type) {
	case event.Moved:
		if !finite(e.Distance) {
			return s, invalidNumber(ev, "distance", e.Distance)
		}
		// checked silently first so no line is logged for a rejected move
		end := turtle.Move(turtle.Discard, e.Distance, s).Position
		if !finite(end.X) || !finite(end.Y) {
			return s, &ReplayError{
				Code:    ErrCodeInvalidNumber,
				Message: fmt.Sprintf("moved distance %v from %s leaves the plane", e.Distance, s.Position),
				Event:   ev,
			}
		}
		return turtle.Move(log, e.Distance, s), nil
	case event.Turned:
		if !finite(e.Angle) {
			return s, invalidNumber(ev, "angle", e.Angle)
		}
		return turtle.Turn(log, e.Angle, s), nil
	case event.PenWentUp:
		return turtle.PenUp(log, s), nil
	case event.PenWentDown:
		return turtle.PenDown(log, s), nil
	case event.ColorChanged:
		if !e.Color.Valid() {
			return s, &ReplayError{
				Code:    ErrCodeInvalidColor,
				Message: fmt.Sprintf("color %d is not declared", int(e.Color)),
				Event:   ev,
			}
		}
		return turtle.SetColor(log, e.Color, s), nil
	default:
		return s, &ReplayError{
			Code:    ErrCodeUnknownEvent,
			Message: fmt.Sprintf("cannot apply %T", ev),
			Event:   ev,
		}
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func invalidNumber(ev event.Event, field string, v float64) *ReplayError {
	return &ReplayError{
		Code:    ErrCodeInvalidNumber,
		Message: fmt.Sprintf("%s %s is %v", ev.Type(), field, v),
		Event:   ev,
	}
}

// Derive returns the MovedEvent for a transition from before to after, and
// false when the position did not change. PenColor is before's color iff
// the pen was down before the move.
func Derive(before, after turtle.State) (event.MovedEvent, bool) {
	if before.Position == after.Position {
		return event.MovedEvent{}, false
	}

	moved := event.MovedEvent{
		Start: before.Position,
		End:   after.Position,
	}
	if before.Pen == turtle.Down {
		moved.PenColor = event.ColorPtr(before.Color)
	}
	return moved, true
}
