package turtle

import (
	"fmt"
	"strings"
)

// Color is the color the pen draws with.
type Color int

const (
	Black Color = iota
	Red
	Blue
)

// Colors lists every valid color in declaration order.
var Colors = []Color{Black, Red, Blue}

func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	case Blue:
		return "Blue"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

// Valid reports whether c is one of the declared colors.
func (c Color) Valid() bool {
	return c >= Black && c <= Blue
}

// ParseColor maps a color name to a Color. Matching is case-insensitive.
func ParseColor(name string) (Color, error) {
	for _, c := range Colors {
		if strings.EqualFold(name, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", name)
}

// PenState is whether the pen touches the paper.
type PenState int

const (
	Down PenState = iota
	Up
)

func (p PenState) String() string {
	switch p {
	case Down:
		return "Down"
	case Up:
		return "Up"
	default:
		return fmt.Sprintf("PenState(%d)", int(p))
	}
}

// Position is a point on the drawing plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// State is a turtle's computed state. It is a value type: transitions
// return a new State and never modify their input.
type State struct {
	Position Position
	Angle    float64
	Color    Color
	Pen      PenState
}

// Initial returns the state of a turtle with no history.
func Initial() State {
	return State{
		Position: Position{X: 0, Y: 0},
		Angle:    0,
		Color:    Black,
		Pen:      Down,
	}
}
