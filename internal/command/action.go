package command

import (
	"fmt"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

// Action is what a command asks the turtle to do.
type Action interface {
	// Name is the action keyword, e.g. "Move".
	Name() string
	action()
}

// Move the turtle Distance units along its heading.
type Move struct {
	Distance float64
}

// Turn the turtle by Angle degrees.
type Turn struct {
	Angle float64
}

// PenUp lifts the pen.
type PenUp struct{}

// PenDown lowers the pen.
type PenDown struct{}

// SetColor changes the pen color.
type SetColor struct {
	Color turtle.Color
}

func (Move) Name() string     { return "Move" }
func (Turn) Name() string     { return "Turn" }
func (PenUp) Name() string    { return "PenUp" }
func (PenDown) Name() string  { return "PenDown" }
func (SetColor) Name() string { return "SetColor" }

func (Move) action()     {}
func (Turn) action()     {}
func (PenUp) action()    {}
func (PenDown) action()  {}
func (SetColor) action() {}

// Command is the unit of input to the write path.
type Command struct {
	TurtleID turtle.ID
	Action   Action
}

// ToEvent maps an action to its StateChanged event. The mapping is one to
// one.
func ToEvent(a Action) (event.StateChanged, error) {
	switch a := a.(type) {
	case Move:
		return event.Moved{Distance: a.Distance}, nil
	case Turn:
		return event.Turned{Angle: a.Angle}, nil
	case PenUp:
		return event.PenWentUp{}, nil
	case PenDown:
		return event.PenWentDown{}, nil
	case SetColor:
		return event.ColorChanged{Color: a.Color}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}
