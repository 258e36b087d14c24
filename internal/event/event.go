package event

import "github.com/roach88/turtle/internal/turtle"

// Event is any fact stored in a turtle's log.
type Event interface {
	// Type is the stable wire name of the event case.
	Type() string
	event()
}

// StateChanged is a write-side fact that replay folds into state.
type StateChanged interface {
	Event
	stateChanged()
}

// Wire names of every event case.
const (
	TypeMoved        = "moved"
	TypeTurned       = "turned"
	TypePenWentUp    = "pen_went_up"
	TypePenWentDown  = "pen_went_down"
	TypeColorChanged = "color_changed"
	TypeMovedEvent   = "moved_event"
)

// Moved records a Move command.
type Moved struct {
	Distance float64
}

// Turned records a Turn command.
type Turned struct {
	Angle float64
}

// PenWentUp records a PenUp command.
type PenWentUp struct{}

// PenWentDown records a PenDown command.
type PenWentDown struct{}

// ColorChanged records a SetColor command.
type ColorChanged struct {
	Color turtle.Color
}

// MovedEvent is derived whenever a command changes the turtle's position.
// PenColor is set iff the pen was down immediately before the move, and
// names the color of the line that was drawn.
type MovedEvent struct {
	Start    turtle.Position
	End      turtle.Position
	PenColor *turtle.Color
}

// Drawn reports whether the move left a line.
func (e MovedEvent) Drawn() bool {
	return e.PenColor != nil
}

func (Moved) Type() string        { return TypeMoved }
func (Turned) Type() string       { return TypeTurned }
func (PenWentUp) Type() string    { return TypePenWentUp }
func (PenWentDown) Type() string  { return TypePenWentDown }
func (ColorChanged) Type() string { return TypeColorChanged }
func (MovedEvent) Type() string   { return TypeMovedEvent }

func (Moved) event()        {}
func (Turned) event()       {}
func (PenWentUp) event()    {}
func (PenWentDown) event()  {}
func (ColorChanged) event() {}
func (MovedEvent) event()   {}

func (Moved) stateChanged()        {}
func (Turned) stateChanged()       {}
func (PenWentUp) stateChanged()    {}
func (PenWentDown) stateChanged()  {}
func (ColorChanged) stateChanged() {}

// ColorPtr returns a pointer to c, for building MovedEvent literals.
func ColorPtr(c turtle.Color) *turtle.Color {
	return &c
}
